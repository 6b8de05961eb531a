package engine

import "github.com/roach88/cliptrack/internal/timeline"

// activation holds the two edges of one clip's current pass.
type activation struct {
	started bool
	ended   bool
}

// Tracker records, per clip instance, whether start and end have fired for
// the current activation. Clips are keyed by pointer identity.
type Tracker struct {
	clips map[*timeline.Clip]*activation
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{clips: make(map[*timeline.Clip]*activation)}
}

// RecordStart marks the start edge of c. It reports true only for a new
// firing; a clip that already started in this activation is a no-op.
func (t *Tracker) RecordStart(c *timeline.Clip) bool {
	a, ok := t.clips[c]
	if !ok {
		a = &activation{}
		t.clips[c] = a
	}
	if a.started {
		return false
	}
	a.started = true
	a.ended = false
	return true
}

// RecordEnd marks the end edge of c. It fires only when start has fired and
// end has not, and clears started so the clip can activate again after a
// loop.
func (t *Tracker) RecordEnd(c *timeline.Clip) bool {
	a, ok := t.clips[c]
	if !ok || !a.started || a.ended {
		return false
	}
	a.ended = true
	a.started = false
	return true
}

// Started reports whether c is inside an activation (start fired, end not).
func (t *Tracker) Started(c *timeline.Clip) bool {
	a, ok := t.clips[c]
	return ok && a.started
}

// Ended reports whether c's end fired and it has not started again.
func (t *Tracker) Ended(c *timeline.Clip) bool {
	a, ok := t.clips[c]
	return ok && a.ended
}

// Len returns the number of clips with recorded state.
func (t *Tracker) Len() int {
	return len(t.clips)
}

// Reset forgets every clip.
func (t *Tracker) Reset() {
	clear(t.clips)
}
