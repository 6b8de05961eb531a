package engine

import "github.com/roach88/cliptrack/internal/timeline"

// EventType names a playback event.
type EventType string

const (
	EventPlay   EventType = "play"
	EventStart  EventType = "start"
	EventUpdate EventType = "update"
	EventEnd    EventType = "end"
	EventLoop   EventType = "loop"
	EventFinish EventType = "finish"
	EventStop   EventType = "stop"
)

// Event is one observable step of a session.
//
// At is the logical time of the event: the clip boundary for start and end,
// the max duration for loop and finish, and the clock otherwise. Clock is
// the engine clock when the event was emitted, which for start and end may
// sit up to one substep past At.
type Event struct {
	Seq       int64
	Type      EventType
	GroupID   int
	GroupName string

	// Clip fields are set for start, update and end; TrackIndex and
	// ClipIndex are -1 otherwise.
	Clip       *timeline.Clip
	TrackIndex int
	ClipIndex  int

	At       float64
	Clock    float64
	Progress float64
}

// Observer receives every event of every session of an engine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f(ev).
func (f ObserverFunc) OnEvent(ev Event) {
	f(ev)
}
