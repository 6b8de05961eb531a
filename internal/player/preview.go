package player

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/cliptrack/internal/engine"
	"github.com/roach88/cliptrack/internal/timeline"
)

// Preview plays one group of an asset file in real time and reloads the
// file whenever it changes on disk, restarting the group from 0.
type Preview struct {
	path    string
	groupID int
	player  *Player

	mu      sync.Mutex
	reloads int
}

// NewPreview loads path and starts the group with id groupID.
func NewPreview(path string, groupID int, opts ...engine.EngineOption) (*Preview, error) {
	asset, err := timeline.Load(path)
	if err != nil {
		return nil, err
	}
	pv := &Preview{
		path:    filepath.Clean(path),
		groupID: groupID,
		player:  New(asset, opts...),
	}
	if err := pv.player.Play(groupID); err != nil {
		return nil, err
	}
	return pv, nil
}

// Player returns the underlying player.
func (pv *Preview) Player() *Player {
	return pv.player
}

// Reloads returns how many reloads succeeded.
func (pv *Preview) Reloads() int {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.reloads
}

// Reload re-reads the asset file and restarts the group. On a load error
// the current asset keeps playing.
func (pv *Preview) Reload() error {
	asset, err := timeline.Load(pv.path)
	if err != nil {
		return err
	}
	pv.player.SetAsset(asset)
	if err := pv.player.Play(pv.groupID); err != nil {
		return fmt.Errorf("reload %s: %w", pv.path, err)
	}

	pv.mu.Lock()
	pv.reloads++
	pv.mu.Unlock()
	slog.Info("asset reloaded", "path", pv.path, "group_id", pv.groupID)
	return nil
}

// Run plays in real time until ctx is cancelled, reloading on change. The
// directory is watched rather than the file so editors that replace the
// file on save are still seen.
func (pv *Preview) Run(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		return fmt.Errorf("preview: tick must be positive, got %s", tick)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(pv.path)); err != nil {
		return fmt.Errorf("watch %s: %w", pv.path, err)
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			pv.player.Stop()
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := pv.player.Update(dt); err != nil && !engine.IsSubstepCapError(err) {
				slog.Warn("preview update failed", "error", err)
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(pv.path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if err := pv.Reload(); err != nil {
					slog.Error("preview reload failed", "path", pv.path, "group_id", pv.groupID, "error", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}
