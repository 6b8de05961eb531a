package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cliptrack/internal/timeline"
)

func TestTracker_RecordStartOnce(t *testing.T) {
	tr := NewTracker()
	c := timeline.NewClip(0, 1)

	assert.True(t, tr.RecordStart(c), "first start is a new firing")
	assert.False(t, tr.RecordStart(c), "second start in the same activation is a no-op")
	assert.True(t, tr.Started(c))
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_RecordEndRequiresStart(t *testing.T) {
	tr := NewTracker()
	c := timeline.NewClip(0, 1)

	assert.False(t, tr.RecordEnd(c), "end without start must not fire")

	tr.RecordStart(c)
	assert.True(t, tr.RecordEnd(c))
	assert.False(t, tr.RecordEnd(c), "end fires once per activation")
	assert.True(t, tr.Ended(c))
	assert.False(t, tr.Started(c))
}

func TestTracker_Reactivation(t *testing.T) {
	tr := NewTracker()
	c := timeline.NewClip(0, 1)

	tr.RecordStart(c)
	tr.RecordEnd(c)

	assert.True(t, tr.RecordStart(c), "clip can start again after its end")
	assert.False(t, tr.Ended(c))
	assert.True(t, tr.RecordEnd(c))
}

func TestTracker_IdentityNotValue(t *testing.T) {
	tr := NewTracker()
	a := timeline.NewClip(0.5, 1)
	b := timeline.NewClip(0.5, 1)

	assert.True(t, tr.RecordStart(a))
	assert.True(t, tr.RecordStart(b), "equal timing does not make clips the same")
	assert.Equal(t, 2, tr.Len())
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	c := timeline.NewClip(0, 1)
	tr.RecordStart(c)

	tr.Reset()

	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.Started(c))
	assert.True(t, tr.RecordStart(c))
}
