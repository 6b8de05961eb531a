package engine

import (
	"log/slog"
	"math"

	"github.com/roach88/cliptrack/internal/timeline"
)

// DefaultMaxStep is the largest clock increment of one substep, in seconds.
// It bounds how far a boundary can sit inside a substep, not whether it is
// detected: crossings are tested over the whole (prev, curr] interval.
const DefaultMaxStep = 0.01

const (
	// zeroEpsilon is the tolerance of the time-zero start test and of the
	// max-duration boundary.
	zeroEpsilon = 1e-6

	// residue is the leftover delta treated as fully consumed.
	residue = 1e-9
)

// Dispatcher routes a notification to the handler registered for its kind.
// Unknown kinds must be ignored. Owner is the host context passed to the
// engine with WithOwner, forwarded unchanged.
type Dispatcher interface {
	DispatchStart(owner any, n timeline.Notification)
	DispatchUpdate(owner any, n timeline.Notification, progress float64)
	DispatchEnd(owner any, n timeline.Notification)
}

// ActiveClip is a clip inside its current activation.
type ActiveClip struct {
	Clip       *timeline.Clip
	TrackIndex int
	ClipIndex  int
}

// Engine plays one track group at a time with a fixed-substep clock.
//
// Session state (clock, speed, tracker, active set) is reset by Start and
// discarded by Stop. The group itself is borrowed read-only.
type Engine struct {
	dispatcher  Dispatcher
	owner       any
	observers   []Observer
	seq         *Clock
	maxStep     float64
	maxSubsteps int

	group       *timeline.TrackGroup
	playing     bool
	time        float64
	speed       float64
	maxDuration float64
	looping     bool
	loops       int

	tracker *Tracker
	active  []ActiveClip

	// session changes on every Start and Stop; a dispatch loop that sees
	// it change knows a handler took over the engine.
	session uint64
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithDispatcher sets the notification dispatcher. Without one the engine
// still tracks clips and emits events but dispatches nothing.
func WithDispatcher(d Dispatcher) EngineOption {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithOwner sets the opaque owner passed to every dispatch.
func WithOwner(owner any) EngineOption {
	return func(e *Engine) {
		e.owner = owner
	}
}

// WithObserver adds an observer. Observers are called in the order added.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithMaxStep overrides DefaultMaxStep. Non-positive or non-finite values
// are ignored.
func WithMaxStep(step float64) EngineOption {
	return func(e *Engine) {
		if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
			slog.Warn("ignoring invalid max step", "max_step", step)
			return
		}
		e.maxStep = step
	}
}

// WithMaxSubsteps caps the substeps of one Advance call. Zero means
// unlimited.
//
// Default: 0. A capped Advance returns an ErrCodeSubstepCap error and drops
// the remaining delta.
func WithMaxSubsteps(n int) EngineOption {
	return func(e *Engine) {
		if n < 0 {
			n = 0
		}
		e.maxSubsteps = n
	}
}

// WithClock sets the seq clock used to stamp lifecycle events.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.seq = c
		}
	}
}

// New creates an idle engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		seq:     NewClock(),
		maxStep: DefaultMaxStep,
		speed:   1,
		tracker: NewTracker(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start adopts g as the current group and begins playback from time 0.
//
// Clock, speed, looping and max duration are snapshotted from g, the tracker
// and active set are cleared, and crossings are evaluated at t=0 so clips
// starting at the origin fire before the first Advance.
//
// A nil group returns ErrCodeNilGroup and leaves the engine untouched. A
// group with max duration <= 0 is adopted but logged: Advance will refuse
// to move its clock.
func (e *Engine) Start(g *timeline.TrackGroup) error {
	if g == nil {
		err := &PlaybackError{Code: ErrCodeNilGroup, Message: "cannot start playback without a group"}
		slog.Warn("start rejected", "error", err)
		return err
	}

	e.session++
	e.group = g
	e.playing = true
	e.time = 0
	e.speed = g.Speed
	e.maxDuration = g.MaxDuration
	e.looping = g.Looping
	e.loops = 0
	e.tracker.Reset()
	e.active = nil

	if g.MaxDuration <= 0 {
		slog.Warn("group has no playable length; advance will be a no-op",
			"group", g.Name, "group_id", g.ID, "max_duration", g.MaxDuration)
	}
	slog.Info("playback started",
		"group", g.Name,
		"group_id", g.ID,
		"max_duration", g.MaxDuration,
		"looping", g.Looping,
		"speed", g.Speed)

	e.emit(EventPlay, nil, -1, -1, 0, 0, true)
	e.checkEvents(0, 0)
	return nil
}

// Stop ends the session: playing is cleared, the group reference is dropped
// and the active set and tracker are emptied. Stop on an idle engine is a
// no-op.
func (e *Engine) Stop() {
	if e.group == nil {
		return
	}
	g := e.group
	e.emit(EventStop, nil, -1, -1, e.time, 0, true)

	e.session++
	e.playing = false
	e.group = nil
	e.active = nil
	e.tracker.Reset()

	slog.Info("playback stopped", "group", g.Name, "group_id", g.ID, "clock", e.time, "loops", e.loops)
}

// SetSpeed replaces the session's speed multiplier without touching the
// clock. Zero freezes time; negative values make Advance consume nothing.
// Start resets speed to the group's own value.
func (e *Engine) SetSpeed(speed float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		err := e.playbackError(ErrCodeNonFiniteSpeed, "speed must be finite")
		slog.Warn("set speed rejected", "speed", speed, "error", err)
		return err
	}
	e.speed = speed
	return nil
}

// Advance moves the clock by deltaTime*speed in substeps of at most the max
// step, firing crossings and updates as it goes.
//
// Advance is a no-op when nothing is playing. When the clock reaches the max
// duration a looping group wraps to 0 and keeps consuming delta;
// a non-looping group clamps, finishes and discards the rest.
func (e *Engine) Advance(deltaTime float64) error {
	if math.IsNaN(deltaTime) || math.IsInf(deltaTime, 0) {
		err := e.playbackError(ErrCodeNonFiniteDelta, "delta time must be finite")
		slog.Warn("advance rejected", "delta", deltaTime, "error", err)
		return err
	}
	if !e.playing || e.group == nil {
		return nil
	}
	if e.maxDuration <= 0 {
		return e.playbackError(ErrCodeInvalidDuration, "max duration must be positive")
	}

	session := e.session
	loopsBefore := e.loops
	total := deltaTime * e.speed
	substeps := 0
	var err error

	for total > residue {
		if e.maxSubsteps > 0 && substeps >= e.maxSubsteps {
			err = e.playbackError(ErrCodeSubstepCap, "substep limit reached; remaining delta dropped")
			slog.Warn("advance truncated",
				"group", e.group.Name,
				"substeps", substeps,
				"dropped", total)
			break
		}
		substeps++

		// A substep never passes the max duration, so one substep crosses
		// at most one loop boundary however short the group is.
		step := math.Min(total, math.Min(e.maxStep, math.Max(0, e.maxDuration-e.time)))
		prev := e.time
		raw := math.Max(0, e.time+step)
		atEnd := raw >= e.maxDuration || approxEqual(raw, e.maxDuration)
		curr := raw
		if atEnd {
			curr = e.maxDuration
		}
		e.time = curr

		e.checkEvents(prev, curr)
		if e.session != session {
			break
		}
		e.updateActive(curr)
		if e.session != session {
			break
		}

		if atEnd {
			if !e.looping {
				e.finish()
				break
			}
			e.loop()
			if e.session != session {
				break
			}
		}
		total -= step
	}

	if n := e.loops - loopsBefore; n > 1 && e.session == session {
		slog.Warn("multiple loops in one advance",
			"group", e.group.Name,
			"loops", n,
			"delta", deltaTime)
	}
	return err
}

// loop wraps the clock to 0 and restarts every clip. Clips at 0 start
// immediately; the rest of the delta is consumed by the following substeps.
func (e *Engine) loop() {
	session := e.session
	e.emit(EventLoop, nil, -1, -1, e.maxDuration, 0, true)
	if e.session != session {
		return
	}

	e.loops++
	e.time = 0
	e.tracker.Reset()
	e.active = nil
	slog.Debug("playback looped", "group", e.group.Name, "loops", e.loops)

	e.checkEvents(0, 0)
}

// finish ends a non-looping session at its max duration. The group stays
// adopted for inspection until Stop or Start.
func (e *Engine) finish() {
	e.time = e.maxDuration
	e.playing = false
	e.active = nil
	slog.Info("playback finished", "group", e.group.Name, "group_id", e.group.ID, "clock", e.time)
	e.emit(EventFinish, nil, -1, -1, e.maxDuration, 0, true)
}

// checkEvents fires the start and end crossings of (prev, curr] on every
// active track. When both bounds are at the origin, clips starting at 0 also
// start; the tracker keeps that from double firing.
func (e *Engine) checkEvents(prev, curr float64) {
	g := e.group
	session := e.session
	origin := approxZero(prev) && approxZero(curr)

	for ti, track := range g.Tracks {
		if track == nil || !track.Active {
			continue
		}
		for ci, clip := range track.Clips {
			if clip == nil {
				continue
			}

			start := clip.Start
			if (prev < start && start <= curr) || (origin && approxZero(start)) {
				if e.tracker.RecordStart(clip) {
					e.active = append(e.active, ActiveClip{Clip: clip, TrackIndex: ti, ClipIndex: ci})
					e.emit(EventStart, clip, ti, ci, start, 0, true)
					if !e.dispatch(EventStart, clip, 0, session) {
						return
					}
				}
			}

			end := clip.End()
			if (prev < end && end <= curr) || (origin && approxZero(end)) {
				if e.tracker.RecordEnd(clip) {
					e.deactivate(clip)
					e.emit(EventEnd, clip, ti, ci, end, 1, true)
					if !e.dispatch(EventEnd, clip, 0, session) {
						return
					}
				}
			}
		}
	}
}

// updateActive dispatches progress for every active clip. It walks a
// snapshot so handlers cannot disturb the pass.
func (e *Engine) updateActive(t float64) {
	if len(e.active) == 0 {
		return
	}
	session := e.session
	snapshot := make([]ActiveClip, len(e.active))
	copy(snapshot, e.active)

	for _, a := range snapshot {
		p := progress(a.Clip, t)
		e.emit(EventUpdate, a.Clip, a.TrackIndex, a.ClipIndex, t, p, false)
		if !e.dispatch(EventUpdate, a.Clip, p, session) {
			return
		}
	}
}

// dispatch sends one lifecycle edge of clip to every notification in list
// order. It reports false when a handler stopped or restarted the engine.
func (e *Engine) dispatch(kind EventType, clip *timeline.Clip, p float64, session uint64) bool {
	if e.session != session {
		return false
	}
	if e.dispatcher == nil {
		return true
	}
	for _, n := range clip.Notifications {
		if n == nil {
			continue
		}
		switch kind {
		case EventStart:
			e.dispatcher.DispatchStart(e.owner, n)
		case EventUpdate:
			e.dispatcher.DispatchUpdate(e.owner, n, p)
		case EventEnd:
			e.dispatcher.DispatchEnd(e.owner, n)
		}
		if e.session != session {
			return false
		}
	}
	return true
}

func (e *Engine) deactivate(clip *timeline.Clip) {
	for i, a := range e.active {
		if a.Clip == clip {
			e.active = append(e.active[:i:i], e.active[i+1:]...)
			return
		}
	}
}

// emit hands an event to every observer. Update samples are not stamped.
func (e *Engine) emit(typ EventType, clip *timeline.Clip, ti, ci int, at, p float64, stamp bool) {
	if len(e.observers) == 0 {
		if stamp {
			e.seq.Next()
		}
		return
	}
	ev := Event{
		Type:       typ,
		Clip:       clip,
		TrackIndex: ti,
		ClipIndex:  ci,
		At:         at,
		Clock:      e.time,
		Progress:   p,
	}
	if e.group != nil {
		ev.GroupID = e.group.ID
		ev.GroupName = e.group.Name
	}
	if stamp {
		ev.Seq = e.seq.Next()
	}
	for _, o := range e.observers {
		o.OnEvent(ev)
	}
}

func (e *Engine) playbackError(code PlaybackErrorCode, msg string) *PlaybackError {
	err := &PlaybackError{Code: code, Message: msg}
	if e.group != nil {
		err.GroupID = e.group.ID
		err.GroupName = e.group.Name
	}
	return err
}

// Time returns the session clock in seconds.
func (e *Engine) Time() float64 {
	return e.time
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	return e.speed
}

// IsPlaying reports whether Advance will move the clock.
func (e *Engine) IsPlaying() bool {
	return e.playing
}

// Group returns the adopted group, or nil after Stop.
func (e *Engine) Group() *timeline.TrackGroup {
	return e.group
}

// MaxDuration returns the max duration snapshotted at Start.
func (e *Engine) MaxDuration() float64 {
	return e.maxDuration
}

// Loops returns the number of loop transitions since Start.
func (e *Engine) Loops() int {
	return e.loops
}

// ActiveClips returns a copy of the active set in activation order.
func (e *Engine) ActiveClips() []ActiveClip {
	out := make([]ActiveClip, len(e.active))
	copy(out, e.active)
	return out
}

// Tracker exposes the activation tracker for inspection.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// progress returns clamp01((t-start)/duration). A clip without positive
// duration is complete once t reaches its start.
func progress(c *timeline.Clip, t float64) float64 {
	if c.Duration <= 0 {
		if t >= c.Start {
			return 1
		}
		return 0
	}
	p := (t - c.Start) / c.Duration
	return math.Max(0, math.Min(1, p))
}

func approxZero(v float64) bool {
	return math.Abs(v) <= zeroEpsilon
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= zeroEpsilon
}
