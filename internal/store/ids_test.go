package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cliptrack/internal/engine"
)

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}

	a, err := g.NewID()
	require.NoError(t, err)
	b, err := g.NewID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("s-1", "s-2")

	id, err := g.NewID()
	require.NoError(t, err)
	assert.Equal(t, "s-1", id)
	id, err = g.NewID()
	require.NoError(t, err)
	assert.Equal(t, "s-2", id)

	_, err = g.NewID()
	assert.ErrorContains(t, err, "all 2 ids used")
}

func TestRecorder_WithIDGenerator(t *testing.T) {
	s := createTestStore(t)
	rec := NewRecorder(s, WithIDGenerator(NewFixedGenerator("first", "second")))
	e := engine.New(engine.WithObserver(rec))

	require.NoError(t, e.Start(recordedGroup(false)))
	require.NoError(t, e.Start(recordedGroup(false)))
	e.Stop()
	require.NoError(t, rec.Err())

	assert.Equal(t, []string{"first", "second"}, rec.Sessions())
	first, err := s.ReadSession(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, "restart", first.EndedBy)
	second, err := s.ReadSession(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "stop", second.EndedBy)
}

func TestRecorder_IDGeneratorFailure(t *testing.T) {
	s := createTestStore(t)
	rec := NewRecorder(s, WithIDGenerator(NewFixedGenerator()))
	e := engine.New(engine.WithObserver(rec))

	require.NoError(t, e.Start(recordedGroup(false)))
	assert.ErrorContains(t, rec.Err(), "session id")
	assert.Empty(t, rec.Sessions())
	assert.Empty(t, rec.Current())
}
