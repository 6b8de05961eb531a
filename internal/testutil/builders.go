package testutil

import "github.com/roach88/cliptrack/internal/timeline"

// Span describes one clip: its interval and the message of its single log
// notification.
type Span struct {
	Start, Duration float64
	Message         string
}

// Group builds a group with one track holding spans. MaxDuration is set
// after the clips so it is not extended by them.
func Group(id int, name string, maxDuration float64, looping bool, spans ...Span) *timeline.TrackGroup {
	g := timeline.NewTrackGroup(id, name)
	g.Looping = looping
	t := g.AddTrack("main")
	for _, s := range spans {
		g.AddClip(t, s.Start, s.Duration, &timeline.LogNotify{Message: s.Message})
	}
	g.MaxDuration = maxDuration
	return g
}

// Asset wraps groups in an asset.
func Asset(groups ...*timeline.TrackGroup) *timeline.Asset {
	a := timeline.NewAsset()
	a.Groups = groups
	return a
}
