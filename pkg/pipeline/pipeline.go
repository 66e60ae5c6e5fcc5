// Package pipeline tracks the stages of one generation run. Stages advance
// strictly in order and a run cannot be restarted.
package pipeline

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Stage is one step of the generation pipeline
type Stage int

const (
	// Idle is the state before the contract is loaded
	Idle Stage = iota
	Loaded
	Resolved
	Mapped
	Synthesized
	Assembled
	Written
)

var stageNames = map[Stage]string{
	Idle:        "idle",
	Loaded:      "loaded",
	Resolved:    "resolved",
	Mapped:      "mapped",
	Synthesized: "synthesized",
	Assembled:   "assembled",
	Written:     "written",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ErrOutOfOrder is returned when a stage is entered out of sequence
var ErrOutOfOrder = errors.New("pipeline stage out of order")

// Tracker records the current stage of a run
type Tracker struct {
	current Stage
	failed  bool
	onEnter func(Stage)
}

// NewTracker returns a tracker in the Idle stage. onEnter, when non-nil, is
// called after each successful transition.
func NewTracker(onEnter func(Stage)) *Tracker {
	return &Tracker{current: Idle, onEnter: onEnter}
}

// Current returns the last stage reached
func (t *Tracker) Current() Stage {
	return t.current
}

// Advance moves to the next stage. next must be exactly one step ahead.
func (t *Tracker) Advance(next Stage) error {
	if t.failed {
		return errors.Wrapf(ErrOutOfOrder, "cannot enter %s: run already failed at %s", next, t.current)
	}
	if next != t.current+1 {
		return errors.Wrapf(ErrOutOfOrder, "cannot enter %s from %s", next, t.current)
	}
	t.current = next
	if t.onEnter != nil {
		t.onEnter(next)
	}
	return nil
}

// Fail halts the run; every later Advance is refused
func (t *Tracker) Fail() {
	t.failed = true
}

// Failed reports whether Fail was called
func (t *Tracker) Failed() bool {
	return t.failed
}
