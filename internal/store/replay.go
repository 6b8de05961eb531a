package store

import (
	"context"
	"fmt"
)

// SessionTrace is a recorded session together with its events in idx order.
type SessionTrace struct {
	Session Session `json:"session"`
	Events  []Event `json:"events"`
}

// ReplaySession loads a session and all of its events.
func (s *Store) ReplaySession(ctx context.Context, id string) (SessionTrace, error) {
	sess, err := s.ReadSession(ctx, id)
	if err != nil {
		return SessionTrace{}, err
	}
	events, err := s.ReadEvents(ctx, id)
	if err != nil {
		return SessionTrace{}, err
	}
	return SessionTrace{Session: sess, Events: events}, nil
}

// FindOpenSessions returns sessions that never recorded how they ended,
// i.e. the process exited mid-playback. Ordered like ListSessions.
func (s *Store) FindOpenSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, group_name, asset_hash, owner, created_seq, ended_by
		FROM sessions
		WHERE ended_by = ''
		ORDER BY created_seq ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query open sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.GroupID, &sess.GroupName, &sess.AssetHash,
			&sess.Owner, &sess.CreatedSeq, &sess.EndedBy); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LastSeq returns the highest seq recorded in the store, across session
// openings and events. Used to resume the engine clock so seq stays unique
// over several runs sharing one database.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(created_seq), 0) FROM sessions),
			(SELECT COALESCE(MAX(seq), 0) FROM events)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}
