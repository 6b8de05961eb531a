package harness

import (
	"fmt"

	"github.com/roach88/cliptrack/internal/engine"
)

// TraceEvent is one observer event as it appears in a trace.
//
// At is the event's timeline position rendered with three decimals: the
// boundary for start/end, the max duration for loop/finish and the clock
// otherwise. Track and Clip are -1 for group-level events.
type TraceEvent struct {
	Seq   int64  `json:"seq"`
	Type  string `json:"type"`
	Group string `json:"group"`
	Track int    `json:"track"`
	Clip  int    `json:"clip"`
	At    string `json:"at"`
}

func traceEventFrom(ev engine.Event) TraceEvent {
	return TraceEvent{
		Seq:   ev.Seq,
		Type:  string(ev.Type),
		Group: ev.GroupName,
		Track: ev.TrackIndex,
		Clip:  ev.ClipIndex,
		At:    fmt.Sprintf("%.3f", ev.At),
	}
}

// String renders the event for failure messages.
func (e TraceEvent) String() string {
	if e.Track < 0 {
		return fmt.Sprintf("#%d %s %s @%s", e.Seq, e.Type, e.Group, e.At)
	}
	return fmt.Sprintf("#%d %s %s[%d/%d] @%s", e.Seq, e.Type, e.Group, e.Track, e.Clip, e.At)
}

// FinalState is the engine state once every step has run.
type FinalState struct {
	Clock    float64 `json:"clock"`
	Playing  bool    `json:"playing"`
	Active   int     `json:"active"`
	Loops    int     `json:"loops"`
	Sessions int     `json:"sessions"`
	Spawned  int     `json:"spawned"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the observer events in emission order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	State FinalState `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
