package timeline

import "fmt"

// AddGroup appends a new group with the authoring defaults. Its id is
// DefaultGroupID plus the current group count, bumped past any id in use.
func (a *Asset) AddGroup(name string) *TrackGroup {
	used := make(map[int]bool, len(a.Groups))
	for _, g := range a.Groups {
		used[g.ID] = true
	}
	id := DefaultGroupID + len(a.Groups)
	for used[id] {
		id++
	}
	g := NewTrackGroup(id, name)
	a.Groups = append(a.Groups, g)
	return g
}

// RemoveGroup deletes the group with the given id. It reports whether a
// group was removed.
func (a *Asset) RemoveGroup(id int) bool {
	for i, g := range a.Groups {
		if g.ID == id {
			a.Groups = append(a.Groups[:i], a.Groups[i+1:]...)
			return true
		}
	}
	return false
}

// Group returns the first group with the given id.
func (a *Asset) Group(id int) (*TrackGroup, bool) {
	for _, g := range a.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// GroupNamed returns the first group with the given name.
func (a *Asset) GroupNamed(name string) (*TrackGroup, bool) {
	for _, g := range a.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// AddTrack appends an active, empty track.
func (g *TrackGroup) AddTrack(name string) *Track {
	t := NewTrack(name)
	g.Tracks = append(g.Tracks, t)
	return t
}

// MoveTrack moves the track at index from to index to, shifting the tracks
// in between. Clip identity is preserved, so a session playing this group
// keeps its activation state.
func (g *TrackGroup) MoveTrack(from, to int) error {
	n := len(g.Tracks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move track %d -> %d: index out of range [0,%d)", from, to, n)
	}
	if from == to {
		return nil
	}
	t := g.Tracks[from]
	g.Tracks = append(g.Tracks[:from], g.Tracks[from+1:]...)
	g.Tracks = append(g.Tracks[:to], append([]*Track{t}, g.Tracks[to:]...)...)
	return nil
}

// AddClip appends a clip to track t of group g and extends g.MaxDuration
// when the clip would run past it.
func (g *TrackGroup) AddClip(t *Track, start, duration float64, notifications ...Notification) *Clip {
	c := NewClip(start, duration, notifications...)
	t.Clips = append(t.Clips, c)
	if c.End() > g.MaxDuration {
		g.MaxDuration = c.End()
	}
	return c
}
