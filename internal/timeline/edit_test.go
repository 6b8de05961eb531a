package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGroup_AssignsIDs(t *testing.T) {
	a := NewAsset()
	g1 := a.AddGroup("one")
	g2 := a.AddGroup("two")

	assert.Equal(t, DefaultGroupID, g1.ID)
	assert.Equal(t, DefaultGroupID+1, g2.ID)
	assert.True(t, g1.Looping)
	assert.Equal(t, DefaultMaxDuration, g1.MaxDuration)
}

func TestAddGroup_SkipsUsedIDs(t *testing.T) {
	a := NewAsset()
	a.AddGroup("one")
	a.AddGroup("two")
	require.True(t, a.RemoveGroup(DefaultGroupID))

	g := a.AddGroup("three")
	assert.Equal(t, DefaultGroupID+2, g.ID, "id 1001 is still in use")
}

func TestRemoveGroup_Missing(t *testing.T) {
	a := NewAsset()
	assert.False(t, a.RemoveGroup(42))
}

func TestGroupLookup(t *testing.T) {
	a := NewAsset()
	g := a.AddGroup("intro")

	found, ok := a.Group(g.ID)
	require.True(t, ok)
	assert.Same(t, g, found)

	found, ok = a.GroupNamed("intro")
	require.True(t, ok)
	assert.Same(t, g, found)

	_, ok = a.GroupNamed("outro")
	assert.False(t, ok)
}

func TestMoveTrack(t *testing.T) {
	g := NewTrackGroup(1, "g")
	a := g.AddTrack("a")
	b := g.AddTrack("b")
	c := g.AddTrack("c")

	require.NoError(t, g.MoveTrack(0, 2))
	assert.Equal(t, []*Track{b, c, a}, g.Tracks)

	require.NoError(t, g.MoveTrack(2, 0))
	assert.Equal(t, []*Track{a, b, c}, g.Tracks)

	require.NoError(t, g.MoveTrack(1, 1))
	assert.Equal(t, []*Track{a, b, c}, g.Tracks)

	assert.Error(t, g.MoveTrack(3, 0))
	assert.Error(t, g.MoveTrack(0, -1))
}

func TestAddClip_ExtendsMaxDuration(t *testing.T) {
	g := NewTrackGroup(1, "g")
	g.MaxDuration = 2
	tr := g.AddTrack("t")

	g.AddClip(tr, 0, 1)
	assert.Equal(t, 2.0, g.MaxDuration)

	c := g.AddClip(tr, 1.5, 1, &LogNotify{Message: "x"})
	assert.Equal(t, 2.5, g.MaxDuration)
	assert.Len(t, c.Notifications, 1)
	assert.Len(t, tr.Clips, 2)
}
