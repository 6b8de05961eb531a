package store

import (
	"context"
	"fmt"
)

// WriteSession inserts a session record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, group_id, group_name, asset_hash, owner, created_seq, ended_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.GroupID,
		sess.GroupName,
		sess.AssetHash,
		sess.Owner,
		sess.CreatedSeq,
		sess.EndedBy,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// EndSession records how a session ended.
func (s *Store) EndSession(ctx context.Context, id, endedBy string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET ended_by = ? WHERE id = ?`, endedBy, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

// WriteEvents inserts events in one transaction. Rows already present
// (same session_id and idx) are ignored, so a retried batch is harmless.
//
// The session must exist (foreign key constraint).
func (s *Store) WriteEvents(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(session_id, idx, seq, type, track_index, clip_index, at, clock, progress)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, idx) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write events: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			ev.SessionID,
			ev.Idx,
			ev.Seq,
			ev.Type,
			ev.TrackIndex,
			ev.ClipIndex,
			ev.At,
			ev.Clock,
			ev.Progress,
		); err != nil {
			return fmt.Errorf("write events: idx %d: %w", ev.Idx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	return nil
}
