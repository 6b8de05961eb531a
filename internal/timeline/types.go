package timeline

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Authoring defaults.
const (
	// AssetVersion is the current asset format version.
	AssetVersion = 1000

	// DefaultGroupID is the id given to a group that does not declare one.
	DefaultGroupID = 1000

	// DefaultMaxDuration is the playable length of a new group, in seconds.
	DefaultMaxDuration = 10.0
)

// Asset is a versioned collection of independently playable track groups.
type Asset struct {
	Version int           `yaml:"version" json:"version"`
	Groups  []*TrackGroup `yaml:"groups" json:"groups"`
}

// TrackGroup is a bundle of tracks sharing one clock, speed and loop flag.
//
// MaxDuration is trusted by the engine; keeping it at or past the end of the
// latest clip is the editing surface's job (see Asset.Validate).
type TrackGroup struct {
	ID          int      `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	MaxDuration float64  `yaml:"max_duration" json:"max_duration"`
	Looping     bool     `yaml:"looping" json:"looping"`
	Speed       float64  `yaml:"speed" json:"speed"`
	Tracks      []*Track `yaml:"tracks,omitempty" json:"tracks,omitempty"`
}

// Track is an ordered lane of clips. Inactive tracks are skipped entirely
// during playback.
type Track struct {
	Name   string  `yaml:"name" json:"name"`
	Active bool    `yaml:"active" json:"active"`
	Clips  []*Clip `yaml:"clips,omitempty" json:"clips,omitempty"`
}

// Clip is a timed interval carrying notifications.
type Clip struct {
	Start         float64       `yaml:"start" json:"start"`
	Duration      float64       `yaml:"duration" json:"duration"`
	Notifications Notifications `yaml:"notifications,omitempty" json:"notifications,omitempty"`
}

// End returns Start + Duration. It is derived, never stored.
func (c *Clip) End() float64 {
	return c.Start + c.Duration
}

// NewAsset returns an empty asset at the current version.
func NewAsset() *Asset {
	return &Asset{Version: AssetVersion}
}

// NewTrackGroup returns a group with the authoring defaults applied.
func NewTrackGroup(id int, name string) *TrackGroup {
	return &TrackGroup{
		ID:          id,
		Name:        name,
		MaxDuration: DefaultMaxDuration,
		Looping:     true,
		Speed:       1.0,
	}
}

// NewTrack returns an active, empty track.
func NewTrack(name string) *Track {
	return &Track{Name: name, Active: true}
}

// NewClip returns a clip with the given timing and notifications.
func NewClip(start, duration float64, notifications ...Notification) *Clip {
	return &Clip{Start: start, Duration: duration, Notifications: notifications}
}

// UnmarshalYAML applies the asset defaults before decoding.
func (a *Asset) UnmarshalYAML(node *yaml.Node) error {
	type plain Asset
	p := plain{Version: AssetVersion}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*a = Asset(p)
	return nil
}

// UnmarshalJSON applies the asset defaults before decoding.
func (a *Asset) UnmarshalJSON(data []byte) error {
	type plain Asset
	p := plain{Version: AssetVersion}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Asset(p)
	return nil
}

// UnmarshalYAML applies the group defaults before decoding.
func (g *TrackGroup) UnmarshalYAML(node *yaml.Node) error {
	type plain TrackGroup
	p := plain(*NewTrackGroup(DefaultGroupID, ""))
	if err := node.Decode(&p); err != nil {
		return err
	}
	*g = TrackGroup(p)
	return nil
}

// UnmarshalJSON applies the group defaults before decoding.
func (g *TrackGroup) UnmarshalJSON(data []byte) error {
	type plain TrackGroup
	p := plain(*NewTrackGroup(DefaultGroupID, ""))
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*g = TrackGroup(p)
	return nil
}

// UnmarshalYAML defaults Active to true.
func (t *Track) UnmarshalYAML(node *yaml.Node) error {
	type plain Track
	p := plain{Active: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = Track(p)
	return nil
}

// UnmarshalJSON defaults Active to true.
func (t *Track) UnmarshalJSON(data []byte) error {
	type plain Track
	p := plain{Active: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Track(p)
	return nil
}
