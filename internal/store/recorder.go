package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/cliptrack/internal/engine"
)

// Recorder is an engine.Observer that writes sessions to a Store.
//
// A play event opens a session (written immediately); later events are
// buffered and written in one transaction when the session finishes or
// stops, or on Flush. Update samples are dropped unless WithUpdates is set.
//
// OnEvent cannot return errors, so the first write failure is kept and
// reported by Err; recording continues best-effort.
type Recorder struct {
	store         *Store
	assetHash     string
	owner         string
	recordUpdates bool
	ids           IDGenerator

	mu       sync.Mutex
	session  *Session
	buf      []Event
	idx      int
	sessions []string
	err      error
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithAssetHash stamps sessions with the hash of the asset being played.
func WithAssetHash(hash string) RecorderOption {
	return func(r *Recorder) {
		r.assetHash = hash
	}
}

// WithSessionOwner stamps sessions with the owner's name.
func WithSessionOwner(owner string) RecorderOption {
	return func(r *Recorder) {
		r.owner = owner
	}
}

// WithUpdates records update samples as well as lifecycle events.
func WithUpdates(record bool) RecorderOption {
	return func(r *Recorder) {
		r.recordUpdates = record
	}
}

// WithIDGenerator replaces the UUIDv7 session ids.
func WithIDGenerator(g IDGenerator) RecorderOption {
	return func(r *Recorder) {
		r.ids = g
	}
}

// NewRecorder creates a Recorder writing to s.
func NewRecorder(s *Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: s, ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnEvent implements engine.Observer.
func (r *Recorder) OnEvent(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx := context.Background()

	if ev.Type == engine.EventPlay {
		if r.session != nil {
			r.closeLocked(ctx, "restart")
		}
		r.openLocked(ctx, ev)
	}
	if r.session == nil {
		return
	}
	if ev.Type == engine.EventUpdate && !r.recordUpdates {
		return
	}

	r.buf = append(r.buf, Event{
		SessionID:  r.session.ID,
		Idx:        r.idx,
		Seq:        ev.Seq,
		Type:       string(ev.Type),
		TrackIndex: ev.TrackIndex,
		ClipIndex:  ev.ClipIndex,
		At:         ev.At,
		Clock:      ev.Clock,
		Progress:   ev.Progress,
	})
	r.idx++

	switch ev.Type {
	case engine.EventFinish, engine.EventStop:
		r.closeLocked(ctx, string(ev.Type))
	}
}

func (r *Recorder) openLocked(ctx context.Context, ev engine.Event) {
	id, err := r.ids.NewID()
	if err != nil {
		r.fail(fmt.Errorf("session id: %w", err))
		return
	}
	sess := Session{
		ID:         id,
		GroupID:    ev.GroupID,
		GroupName:  ev.GroupName,
		AssetHash:  r.assetHash,
		Owner:      r.owner,
		CreatedSeq: ev.Seq,
	}
	if err := r.store.WriteSession(ctx, sess); err != nil {
		r.fail(err)
		return
	}
	r.session = &sess
	r.buf = nil
	r.idx = 0
	r.sessions = append(r.sessions, sess.ID)
	slog.Debug("recording session", "session", sess.ID, "group", sess.GroupName)
}

func (r *Recorder) closeLocked(ctx context.Context, endedBy string) {
	r.flushLocked(ctx)
	if err := r.store.EndSession(ctx, r.session.ID, endedBy); err != nil {
		r.fail(err)
	}
	slog.Debug("session recorded", "session", r.session.ID, "ended_by", endedBy, "events", r.idx)
	r.session = nil
}

func (r *Recorder) flushLocked(ctx context.Context) {
	if len(r.buf) == 0 {
		return
	}
	if err := r.store.WriteEvents(ctx, r.buf); err != nil {
		r.fail(err)
		return
	}
	r.buf = nil
}

func (r *Recorder) fail(err error) {
	slog.Error("session recording failed", "error", err)
	if r.err == nil {
		r.err = err
	}
}

// Flush writes buffered events of the open session, if any.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) == 0 {
		return nil
	}
	if err := r.store.WriteEvents(ctx, r.buf); err != nil {
		return err
	}
	r.buf = nil
	return nil
}

// Current returns the id of the open session, or "".
func (r *Recorder) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ""
	}
	return r.session.ID
}

// Sessions returns the ids of every session opened, in order.
func (r *Recorder) Sessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// Err returns the first write failure seen by OnEvent.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
