package presence

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/example/browser-chat/domain/presence"
	"github.com/go-monolith/mono"
)

// Service names registered in the presence module's service container.
const (
	ServiceListRooms = "list-rooms"
	ServiceListUsers = "list-users"
	ServiceRoomUsers = "room-users"
)

// ListRoomsRequest is the request for list-rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse carries the catalog with live member counts.
type ListRoomsResponse struct {
	Rooms       []domain.RoomSummary `json:"rooms"`
	DefaultRoom string               `json:"default_room"`
}

// ListUsersRequest is the request for list-users.
type ListUsersRequest struct{}

// ListUsersResponse carries every connected user.
type ListUsersResponse struct {
	Users []domain.UserSummary `json:"users"`
	Count int                  `json:"count"`
}

// RoomUsersRequest is the request for room-users.
type RoomUsersRequest struct {
	Room string `json:"room"`
}

// RoomUsersResponse carries the members of one room. Valid is false when
// the room is not in the catalog.
type RoomUsersResponse struct {
	Room  string   `json:"room"`
	Valid bool     `json:"valid"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

func (m *Module) handleListRooms(ctx context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	snap, err := m.engine.Snapshot(ctx)
	if err != nil {
		return ListRoomsResponse{}, fmt.Errorf("list rooms: %w", err)
	}
	return ListRoomsResponse{Rooms: snap.Rooms, DefaultRoom: m.catalog.Default()}, nil
}

func (m *Module) handleListUsers(ctx context.Context, _ ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	snap, err := m.engine.Snapshot(ctx)
	if err != nil {
		return ListUsersResponse{}, fmt.Errorf("list users: %w", err)
	}
	return ListUsersResponse{Users: snap.Users, Count: len(snap.Users)}, nil
}

func (m *Module) handleRoomUsers(ctx context.Context, req RoomUsersRequest, _ *mono.Msg) (RoomUsersResponse, error) {
	room := strings.TrimSpace(req.Room)
	if !m.catalog.IsValid(room) {
		return RoomUsersResponse{Room: room, Users: []string{}}, nil
	}
	snap, err := m.engine.Snapshot(ctx)
	if err != nil {
		return RoomUsersResponse{}, fmt.Errorf("room users: %w", err)
	}
	users := snap.RoomUsers(room)
	return RoomUsersResponse{Room: room, Valid: true, Users: users, Count: len(users)}, nil
}
