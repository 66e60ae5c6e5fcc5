package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		expected string
	}{
		{"error level", SeverityError, "error"},
		{"warning level", SeverityWarning, "warning"},
		{"info level", SeverityInfo, "info"},
		{"unknown negative", Severity(-1), "unknown"},
		{"unknown large value", Severity(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.severity.String())
		})
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Path: "#/channels/pets", Severity: SeverityWarning, Message: "no operations"}
	assert.Equal(t, "⚠ #/channels/pets: no operations", d.String())

	d = Diagnostic{Severity: SeverityError, Message: "boom"}
	assert.Equal(t, "✗ boom", d.String())
}

func TestListAccumulates(t *testing.T) {
	var l List
	assert.False(t, l.HasErrors())

	l.Warnf("#/a", "skipped %s", "x")
	l.Infof("", "note")
	assert.False(t, l.HasErrors())
	assert.Equal(t, 2, l.Len())

	l.Errorf("#/b", "bad %d", 1)
	require.True(t, l.HasErrors())
	require.Len(t, l.Errors(), 1)
	assert.Equal(t, "bad 1", l.Errors()[0].Message)
	require.Len(t, l.Warnings(), 1)
	assert.Equal(t, "skipped x", l.Warnings()[0].Message)

	items := l.Items()
	items[0].Message = "mutated"
	assert.Equal(t, "skipped x", l.Items()[0].Message)
}

func TestListMerge(t *testing.T) {
	var l List
	l.Infof("", "first")
	l.Merge([]Diagnostic{{Severity: SeverityWarning, Message: "second"}})
	assert.Equal(t, "ℹ first\n⚠ second", l.String())
}
