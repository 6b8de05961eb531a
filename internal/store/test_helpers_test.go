package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createTestStore creates a new temp-file store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession writes a session with minimal required fields.
func createTestSession(t *testing.T, s *Store, id string, createdSeq int64) Session {
	t.Helper()
	sess := Session{
		ID:         id,
		GroupID:    1000,
		GroupName:  "intro",
		AssetHash:  "test-hash",
		Owner:      "player",
		CreatedSeq: createdSeq,
	}
	require.NoError(t, s.WriteSession(context.Background(), sess))
	return sess
}

// createTestEvent creates an event for a session.
func createTestEvent(sessionID string, idx int, seq int64, typ string) Event {
	return Event{
		SessionID:  sessionID,
		Idx:        idx,
		Seq:        seq,
		Type:       typ,
		TrackIndex: -1,
		ClipIndex:  -1,
	}
}
