package presence

import (
	domain "github.com/example/browser-chat/domain/presence"
)

// PresenceTracker derives room membership and user lists from the registry.
// Membership is never stored; every view is recomputed on demand.
type PresenceTracker struct {
	registry *ConnectionRegistry
	catalog  *RoomCatalog
}

// NewPresenceTracker creates a tracker over registry and catalog.
func NewPresenceTracker(registry *ConnectionRegistry, catalog *RoomCatalog) *PresenceTracker {
	return &PresenceTracker{registry: registry, catalog: catalog}
}

// MembersOf returns the connections currently in room, in registration order.
func (t *PresenceTracker) MembersOf(room string) []domain.Connection {
	var members []domain.Connection
	for _, conn := range t.registry.All() {
		if conn.Room == room {
			members = append(members, conn)
		}
	}
	return members
}

// MemberIDs returns the ids of the connections in room.
func (t *PresenceTracker) MemberIDs(room string) []string {
	members := t.MembersOf(room)
	ids := make([]string, 0, len(members))
	for _, conn := range members {
		ids = append(ids, conn.ID)
	}
	return ids
}

// MemberNames returns the display names in room.
func (t *PresenceTracker) MemberNames(room string) []string {
	members := t.MembersOf(room)
	names := make([]string, 0, len(members))
	for _, conn := range members {
		names = append(names, conn.DisplayName)
	}
	return names
}

// AllUsers returns every connected user with its room.
func (t *PresenceTracker) AllUsers() []domain.UserSummary {
	all := t.registry.All()
	users := make([]domain.UserSummary, 0, len(all))
	for _, conn := range all {
		users = append(users, domain.UserSummary{Username: conn.DisplayName, Room: conn.Room})
	}
	return users
}

// AllIDs returns every live connection id.
func (t *PresenceTracker) AllIDs() []string {
	all := t.registry.All()
	ids := make([]string, 0, len(all))
	for _, conn := range all {
		ids = append(ids, conn.ID)
	}
	return ids
}

// RoomSummaries returns each catalog room with its member count.
func (t *PresenceTracker) RoomSummaries() []domain.RoomSummary {
	counts := make(map[string]int)
	for _, conn := range t.registry.All() {
		counts[conn.Room]++
	}
	rooms := t.catalog.Rooms()
	out := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, domain.RoomSummary{Name: room, Members: counts[room]})
	}
	return out
}
