package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/cliptrack/internal/timeline"
)

// recorder is a Dispatcher and Observer that logs every call in order.
type recorder struct {
	calls  []string
	owners []any
	events []Event

	// hook runs after a dispatch is recorded.
	hook func(op string, n timeline.Notification)
}

func label(n timeline.Notification) string {
	if l, ok := n.(*timeline.LogNotify); ok {
		return l.Message
	}
	return n.Kind()
}

func (r *recorder) record(op string, owner any, n timeline.Notification) {
	r.calls = append(r.calls, op+":"+label(n))
	r.owners = append(r.owners, owner)
	if r.hook != nil {
		r.hook(op, n)
	}
}

func (r *recorder) DispatchStart(owner any, n timeline.Notification) {
	r.record("start", owner, n)
}

func (r *recorder) DispatchUpdate(owner any, n timeline.Notification, progress float64) {
	r.calls = append(r.calls, fmt.Sprintf("update:%s:%.4f", label(n), progress))
	r.owners = append(r.owners, owner)
	if r.hook != nil {
		r.hook("update", n)
	}
}

func (r *recorder) DispatchEnd(owner any, n timeline.Notification) {
	r.record("end", owner, n)
}

func (r *recorder) OnEvent(ev Event) {
	r.events = append(r.events, ev)
}

// count returns how many op calls were made for the named notification.
func (r *recorder) count(op, name string) int {
	n := 0
	for _, c := range r.calls {
		if c == op+":"+name || (op == "update" && strings.HasPrefix(c, "update:"+name+":")) {
			n++
		}
	}
	return n
}

// lifecycle drops update calls.
func (r *recorder) lifecycle() []string {
	var out []string
	for _, c := range r.calls {
		if !strings.HasPrefix(c, "update:") {
			out = append(out, c)
		}
	}
	return out
}

func (r *recorder) eventTypes(skipUpdates bool) []EventType {
	var out []EventType
	for _, ev := range r.events {
		if skipUpdates && ev.Type == EventUpdate {
			continue
		}
		out = append(out, ev.Type)
	}
	return out
}

func note(msg string) timeline.Notification {
	return &timeline.LogNotify{Message: msg}
}

// span is a clip on a test track: start, duration and a log message.
type span struct {
	start, duration float64
	msg             string
}

// group builds a group with one active track holding spans in order.
func group(maxDuration float64, looping bool, spans ...span) *timeline.TrackGroup {
	g := timeline.NewTrackGroup(1, "test")
	g.MaxDuration = maxDuration
	g.Looping = looping
	t := g.AddTrack("main")
	for _, s := range spans {
		t.Clips = append(t.Clips, timeline.NewClip(s.start, s.duration, note(s.msg)))
	}
	return g
}

func newEngine(r *recorder, opts ...EngineOption) *Engine {
	opts = append([]EngineOption{WithDispatcher(r), WithObserver(r)}, opts...)
	return New(opts...)
}
