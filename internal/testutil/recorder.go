// Package testutil provides recording doubles and group builders shared by
// package tests above the engine.
package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/cliptrack/internal/engine"
	"github.com/roach88/cliptrack/internal/timeline"
)

// Call is one dispatcher invocation.
type Call struct {
	Kind         string // "start", "update" or "end"
	Owner        any
	Notification timeline.Notification
	Progress     float64
}

func (c Call) String() string {
	msg := ""
	if l, ok := c.Notification.(*timeline.LogNotify); ok {
		msg = l.Message
	}
	if c.Kind == "update" {
		return fmt.Sprintf("update %s %.2f", msg, c.Progress)
	}
	return c.Kind + " " + msg
}

// Recorder implements engine.Dispatcher and engine.Observer, keeping every
// call and event in order.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	events []engine.Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

// DispatchStart implements engine.Dispatcher.
func (r *Recorder) DispatchStart(owner any, n timeline.Notification) {
	r.add(Call{Kind: "start", Owner: owner, Notification: n})
}

// DispatchUpdate implements engine.Dispatcher.
func (r *Recorder) DispatchUpdate(owner any, n timeline.Notification, progress float64) {
	r.add(Call{Kind: "update", Owner: owner, Notification: n, Progress: progress})
}

// DispatchEnd implements engine.Dispatcher.
func (r *Recorder) DispatchEnd(owner any, n timeline.Notification) {
	r.add(Call{Kind: "end", Owner: owner, Notification: n})
}

// OnEvent implements engine.Observer.
func (r *Recorder) OnEvent(ev engine.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Calls returns a copy of the dispatcher calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Lifecycle returns the start and end calls rendered as "start msg" /
// "end msg", skipping updates.
func (r *Recorder) Lifecycle() []string {
	var out []string
	for _, c := range r.Calls() {
		if c.Kind != "update" {
			out = append(out, c.String())
		}
	}
	return out
}

// Count returns the number of calls of kind.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Events returns a copy of the observer events.
func (r *Recorder) Events() []engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.Event, len(r.events))
	copy(out, r.events)
	return out
}

// EventTypes returns the observer event types, skipping updates.
func (r *Recorder) EventTypes() []engine.EventType {
	var out []engine.EventType
	for _, ev := range r.Events() {
		if ev.Type != engine.EventUpdate {
			out = append(out, ev.Type)
		}
	}
	return out
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.events = nil
	r.mu.Unlock()
}
