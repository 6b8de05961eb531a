// Package player hosts the playback engine for a loaded timeline asset.
//
// A Player resolves track groups by id or name and drives one engine, either
// from host-supplied deltas (Update) or from a wall-clock ticker (Run). A
// Preview adds hot reload of the asset file on top.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/roach88/cliptrack/internal/engine"
	"github.com/roach88/cliptrack/internal/timeline"
)

// ErrCodeGroupNotFound is the LookupError code.
const ErrCodeGroupNotFound = "GROUP_NOT_FOUND"

// LookupError reports a group id or name that is not in the asset.
type LookupError struct {
	// By is "id" or "name".
	By  string
	Key string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: no group with %s %q", ErrCodeGroupNotFound, e.By, e.Key)
}

// IsLookupError returns true if err is (or wraps) a LookupError.
func IsLookupError(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}

// Player plays the groups of one asset through one engine.
//
// Methods are safe to call from several goroutines; they serialize on an
// internal lock. Notification handlers run under that lock and must not call
// back into the Player.
type Player struct {
	mu     sync.Mutex
	asset  *timeline.Asset
	byID   map[int]*timeline.TrackGroup
	byName map[string]*timeline.TrackGroup
	engine *engine.Engine
}

// New creates a Player for asset. opts configure the underlying engine.
func New(asset *timeline.Asset, opts ...engine.EngineOption) *Player {
	p := &Player{engine: engine.New(opts...)}
	p.setAsset(asset)
	return p
}

func (p *Player) setAsset(asset *timeline.Asset) {
	if asset == nil {
		asset = timeline.NewAsset()
	}
	p.asset = asset
	p.reindex()
}

// reindex rebuilds the lookup tables. The first group wins a duplicate id or
// name.
func (p *Player) reindex() {
	p.byID = make(map[int]*timeline.TrackGroup, len(p.asset.Groups))
	p.byName = make(map[string]*timeline.TrackGroup, len(p.asset.Groups))
	for _, g := range p.asset.Groups {
		if g == nil {
			continue
		}
		if _, dup := p.byID[g.ID]; dup {
			slog.Warn("duplicate group id; keeping the first", "group_id", g.ID, "group", g.Name)
		} else {
			p.byID[g.ID] = g
		}
		if _, dup := p.byName[g.Name]; !dup {
			p.byName[g.Name] = g
		}
	}
}

// Play starts the group with the given id. A miss re-indexes once, in case
// the asset was edited after the Player was built.
func (p *Player) Play(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.byID[id]
	if !ok {
		p.reindex()
		g, ok = p.byID[id]
	}
	if !ok {
		err := &LookupError{By: "id", Key: strconv.Itoa(id)}
		slog.Warn("play failed", "error", err)
		return err
	}
	return p.engine.Start(g)
}

// PlayByName starts the group with the given name.
func (p *Player) PlayByName(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.byName[name]
	if !ok {
		p.reindex()
		g, ok = p.byName[name]
	}
	if !ok {
		err := &LookupError{By: "name", Key: name}
		slog.Warn("play failed", "error", err)
		return err
	}
	return p.engine.Start(g)
}

// Update advances playback by dt seconds.
func (p *Player) Update(dt float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Advance(dt)
}

// Stop ends the current session.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine.Stop()
}

// SetSpeed changes the speed of the current session.
func (p *Player) SetSpeed(speed float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.SetSpeed(speed)
}

// SetAsset stops playback and swaps in a new asset.
func (p *Player) SetAsset(asset *timeline.Asset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine.Stop()
	p.setAsset(asset)
}

// Asset returns the current asset.
func (p *Player) Asset() *timeline.Asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asset
}

// State is a snapshot of the engine.
type State struct {
	Group   *timeline.TrackGroup
	Playing bool
	Time    float64
	Speed   float64
	Loops   int
	Active  []engine.ActiveClip
}

// State returns a snapshot of the current session.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Group:   p.engine.Group(),
		Playing: p.engine.IsPlaying(),
		Time:    p.engine.Time(),
		Speed:   p.engine.Speed(),
		Loops:   p.engine.Loops(),
		Active:  p.engine.ActiveClips(),
	}
}

// IsPlaying reports whether the current session is playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.IsPlaying()
}

// Run drives Update from a ticker with measured wall-clock deltas. It
// returns nil when playback stops or finishes and ctx.Err() when ctx is
// cancelled. A substep-cap truncation is logged and playback continues.
func (p *Player) Run(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		return fmt.Errorf("run: tick must be positive, got %s", tick)
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := p.Update(dt); err != nil && !engine.IsSubstepCapError(err) {
				return err
			}
			if !p.IsPlaying() {
				return nil
			}
		}
	}
}
