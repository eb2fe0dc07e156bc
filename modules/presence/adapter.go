package presence

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/browser-chat/domain/presence"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// PresencePort defines the read-only presence views other modules may use.
type PresencePort interface {
	ListRooms(ctx context.Context) ([]domain.RoomSummary, error)
	ListUsers(ctx context.Context) ([]domain.UserSummary, error)
	RoomUsers(ctx context.Context, room string) ([]string, error)
}

// PresenceAdapter implements PresencePort using the service container.
type PresenceAdapter struct {
	container mono.ServiceContainer
}

// NewPresenceAdapter creates a new PresenceAdapter.
func NewPresenceAdapter(container mono.ServiceContainer) *PresenceAdapter {
	return &PresenceAdapter{
		container: container,
	}
}

// ListRooms returns every catalog room with its member count.
func (a *PresenceAdapter) ListRooms(ctx context.Context) ([]domain.RoomSummary, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListRooms, err)
	}
	return resp.Rooms, nil
}

// ListUsers returns every connected user.
func (a *PresenceAdapter) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	req := ListUsersRequest{}
	var resp ListUsersResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListUsers, err)
	}
	return resp.Users, nil
}

// RoomUsers returns the display names in room, or ErrInvalidRoom.
func (a *PresenceAdapter) RoomUsers(ctx context.Context, room string) ([]string, error) {
	req := RoomUsersRequest{Room: room}
	var resp RoomUsersResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomUsers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceRoomUsers, err)
	}
	if !resp.Valid {
		return nil, fmt.Errorf("room users %q: %w", room, ErrInvalidRoom)
	}
	return resp.Users, nil
}
