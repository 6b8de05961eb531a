// Package engine implements the cliptrack playback engine.
//
// The engine plays exactly one timeline.TrackGroup at a time. A host calls
// Advance once per frame with its wall or simulated delta; the engine splits
// the scaled delta into fixed substeps (DefaultMaxStep) and, for every
// substep:
//
//  1. detects clip start and end crossings over (prev, curr]
//  2. dispatches start/end to every notification on the crossing clip
//  3. dispatches update with a [0,1] progress to every active clip
//  4. loops or finishes when the clock reaches the group's max duration
//
// ACTIVATION:
//
// A clip fires start and end exactly once per pass through its interval.
// The Tracker records both edges per clip instance, keyed by pointer
// identity, so two clips with identical timing are distinct and reordering
// tracks mid-session cannot confuse them. Clips starting at time 0 fire
// during Start, before the first Advance.
//
// ORDERING:
//
// Tracks are scanned in declaration order, clips in list order, and
// notifications on a clip are dispatched in list order. Active clips are
// updated in activation order. Lifecycle events handed to observers are
// stamped with a strictly increasing seq from the engine Clock; update
// samples carry seq 0.
//
// CONCURRENCY:
//
// The engine holds no locks. Start, Stop, SetSpeed and Advance must be called
// from one goroutine, and the playing group must not be mutated during a
// session. Handlers may call Stop (or Start) re-entrantly; the current
// Advance returns right after that dispatch.
package engine
