package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaySession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s-1", 1)
	require.NoError(t, s.WriteEvents(ctx, []Event{
		createTestEvent("s-1", 0, 1, "play"),
		createTestEvent("s-1", 1, 2, "finish"),
	}))
	require.NoError(t, s.EndSession(ctx, "s-1", "finish"))

	trace, err := s.ReplaySession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "finish", trace.Session.EndedBy)
	require.Len(t, trace.Events, 2)
	assert.Equal(t, "play", trace.Events[0].Type)
}

func TestReplaySession_Missing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReplaySession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFindOpenSessions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "done", 1)
	createTestSession(t, s, "open", 2)
	require.NoError(t, s.EndSession(ctx, "done", "stop"))

	open, err := s.FindOpenSessions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "open", open[0].ID)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq, "empty store")

	createTestSession(t, s, "s-1", 4)
	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)

	require.NoError(t, s.WriteEvents(ctx, []Event{
		createTestEvent("s-1", 0, 4, "play"),
		createTestEvent("s-1", 1, 9, "stop"),
	}))
	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), seq)
}
