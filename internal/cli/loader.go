package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/cliptrack/internal/player"
	"github.com/roach88/cliptrack/internal/timeline"
)

// errorCode maps an error to the code reported in the JSON envelope.
func errorCode(err error) string {
	var loadErr *timeline.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	if player.IsLookupError(err) {
		return ErrCodeGroupNotFound
	}
	return ErrCodeGeneric
}

// groupSelector is the --group/--name pair shared by play and preview.
type groupSelector struct {
	ID      int
	Name    string
	idSet   bool
	nameSet bool
}

func (s groupSelector) validate() error {
	switch {
	case s.idSet && s.nameSet:
		return fmt.Errorf("--group and --name are mutually exclusive")
	case !s.idSet && !s.nameSet:
		return fmt.Errorf("one of --group or --name is required")
	}
	return nil
}

// resolve finds the selected group in asset.
func (s groupSelector) resolve(asset *timeline.Asset) (*timeline.TrackGroup, error) {
	if s.idSet {
		if g, ok := asset.Group(s.ID); ok {
			return g, nil
		}
		return nil, &player.LookupError{By: "id", Key: fmt.Sprint(s.ID)}
	}
	if g, ok := asset.GroupNamed(s.Name); ok {
		return g, nil
	}
	return nil, &player.LookupError{By: "name", Key: s.Name}
}

// play starts the selected group on p by the same key it was resolved by,
// so a name picks that group even when ids collide.
func (s groupSelector) play(p *player.Player) error {
	if s.nameSet {
		return p.PlayByName(s.Name)
	}
	return p.Play(s.ID)
}
