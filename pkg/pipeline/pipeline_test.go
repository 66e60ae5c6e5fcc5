package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerAdvancesInOrder(t *testing.T) {
	var seen []Stage
	tr := NewTracker(func(s Stage) { seen = append(seen, s) })
	assert.Equal(t, Idle, tr.Current())

	for _, s := range []Stage{Loaded, Resolved, Mapped, Synthesized, Assembled, Written} {
		require.NoError(t, tr.Advance(s))
	}
	assert.Equal(t, Written, tr.Current())
	assert.Equal(t, []Stage{Loaded, Resolved, Mapped, Synthesized, Assembled, Written}, seen)
}

func TestTrackerRejectsSkipsAndRestarts(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Advance(Loaded))

	err := tr.Advance(Mapped)
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, Loaded, tr.Current())

	assert.ErrorIs(t, tr.Advance(Loaded), ErrOutOfOrder)
	assert.ErrorIs(t, tr.Advance(Idle), ErrOutOfOrder)
}

func TestTrackerFailHalts(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Advance(Loaded))
	tr.Fail()
	assert.True(t, tr.Failed())
	assert.ErrorIs(t, tr.Advance(Resolved), ErrOutOfOrder)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "synthesized", Synthesized.String())
	assert.Equal(t, "stage(42)", Stage(42).String())
}
