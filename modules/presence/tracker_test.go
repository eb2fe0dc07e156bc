package presence

import (
	"testing"

	domain "github.com/example/browser-chat/domain/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceTracker_Views(t *testing.T) {
	catalog, err := NewRoomCatalog(DefaultRooms, "")
	require.NoError(t, err)
	registry := NewConnectionRegistry()
	tracker := NewPresenceTracker(registry, catalog)

	_, err = registry.Register("c1", "alice", "General")
	require.NoError(t, err)
	_, err = registry.Register("c2", "bob", "Introductions")
	require.NoError(t, err)
	_, err = registry.Register("c3", "carol", "General")
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c3"}, tracker.MemberIDs("General"))
	assert.Equal(t, []string{"alice", "carol"}, tracker.MemberNames("General"))
	assert.Equal(t, []string{"c2"}, tracker.MemberIDs("Introductions"))
	assert.Empty(t, tracker.MemberIDs("off-topics"))
	assert.Equal(t, []string{"c1", "c2", "c3"}, tracker.AllIDs())

	assert.Equal(t, []domain.UserSummary{
		{Username: "alice", Room: "General"},
		{Username: "bob", Room: "Introductions"},
		{Username: "carol", Room: "General"},
	}, tracker.AllUsers())

	assert.Equal(t, []domain.RoomSummary{
		{Name: "General", Members: 2},
		{Name: "Introductions", Members: 1},
		{Name: "off-topics", Members: 0},
		{Name: "Hobbies and sports", Members: 0},
	}, tracker.RoomSummaries())
}

func TestPresenceTracker_ReflectsRegistryChanges(t *testing.T) {
	catalog, err := NewRoomCatalog(DefaultRooms, "")
	require.NoError(t, err)
	registry := NewConnectionRegistry()
	tracker := NewPresenceTracker(registry, catalog)

	_, err = registry.Register("c1", "alice", "General")
	require.NoError(t, err)
	require.NoError(t, registry.SetRoom("c1", "off-topics"))

	assert.Empty(t, tracker.MemberIDs("General"))
	assert.Equal(t, []string{"c1"}, tracker.MemberIDs("off-topics"))

	_, err = registry.Remove("c1")
	require.NoError(t, err)
	assert.Empty(t, tracker.AllUsers())
	assert.Empty(t, tracker.MemberNames("off-topics"))
}
