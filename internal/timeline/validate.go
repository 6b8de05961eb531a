package timeline

import "fmt"

// ValidationError describes one authoring anomaly. Path locates it, for
// example "groups[0].tracks[1].clips[2]".
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate reports the authoring invariants the engine trusts but does not
// check: unique group ids and names, non-negative timing and speed, positive
// clip durations and max durations that cover every clip.
//
// A nil result means the asset is clean.
func (a *Asset) Validate() []*ValidationError {
	var errs []*ValidationError
	add := func(path, format string, args ...any) {
		errs = append(errs, &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	ids := make(map[int]int)
	names := make(map[string]int)
	for gi, g := range a.Groups {
		gp := fmt.Sprintf("groups[%d]", gi)
		if g == nil {
			add(gp, "group is nil")
			continue
		}
		if prev, ok := ids[g.ID]; ok {
			add(gp, "duplicate group id %d (also groups[%d])", g.ID, prev)
		} else {
			ids[g.ID] = gi
		}
		if prev, ok := names[g.Name]; ok {
			add(gp, "duplicate group name %q (also groups[%d])", g.Name, prev)
		} else {
			names[g.Name] = gi
		}
		if g.Speed < 0 {
			add(gp, "speed %g is negative", g.Speed)
		}
		if g.MaxDuration < 0 {
			add(gp, "max_duration %g is negative", g.MaxDuration)
		}
		if end := g.LatestEnd(); end > g.MaxDuration {
			add(gp, "max_duration %g is before the latest clip end %g", g.MaxDuration, end)
		}

		for ti, t := range g.Tracks {
			tp := fmt.Sprintf("%s.tracks[%d]", gp, ti)
			if t == nil {
				add(tp, "track is nil")
				continue
			}
			for ci, c := range t.Clips {
				cp := fmt.Sprintf("%s.clips[%d]", tp, ci)
				if c == nil {
					add(cp, "clip is nil")
					continue
				}
				if c.Start < 0 {
					add(cp, "start %g is negative", c.Start)
				}
				if c.Duration <= 0 {
					add(cp, "duration %g must be positive", c.Duration)
				}
			}
		}
	}
	return errs
}

// LatestEnd returns the greatest clip end time in the group, or 0.
func (g *TrackGroup) LatestEnd() float64 {
	var end float64
	for _, t := range g.Tracks {
		if t == nil {
			continue
		}
		for _, c := range t.Clips {
			if c != nil && c.End() > end {
				end = c.End()
			}
		}
	}
	return end
}
