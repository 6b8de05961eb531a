package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cliptrack/internal/engine"
	"github.com/roach88/cliptrack/internal/testutil"
)

func TestPlayer_DispatchAndEventsAcrossAssetSwap(t *testing.T) {
	rec := testutil.NewRecorder()
	asset := testutil.Asset(
		testutil.Group(1, "pulse", 1, true, testutil.Span{Start: 0.25, Duration: 0.5, Message: "a"}),
		testutil.Group(2, "once", 0.5, false, testutil.Span{Start: 0, Duration: 0.5, Message: "b"}),
	)
	p := New(asset, engine.WithDispatcher(rec), engine.WithObserver(rec), engine.WithOwner("hero"))

	require.NoError(t, p.Play(1))
	require.NoError(t, p.Update(0.5))
	require.NoError(t, p.Update(0.5))
	assert.Equal(t, 1, p.State().Loops)

	p.SetAsset(asset)
	assert.False(t, p.IsPlaying(), "swapping the asset stops playback")

	require.NoError(t, p.PlayByName("once"))
	require.NoError(t, p.Update(1))

	assert.Equal(t, []string{"start a", "end a", "start b", "end b"}, rec.Lifecycle())
	assert.Equal(t, []engine.EventType{
		engine.EventPlay, engine.EventStart, engine.EventEnd, engine.EventLoop, engine.EventStop,
		engine.EventPlay, engine.EventStart, engine.EventEnd, engine.EventFinish,
	}, rec.EventTypes())

	for _, c := range rec.Calls() {
		assert.Equal(t, "hero", c.Owner)
	}
	assert.Positive(t, rec.Count("update"))
}
