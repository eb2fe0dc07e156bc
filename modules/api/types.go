package api

import (
	domain "github.com/example/browser-chat/domain/presence"
	"github.com/example/browser-chat/modules/activity"
)

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []domain.RoomSummary `json:"rooms"`
	Count int                  `json:"count"`
}

// UserListResponse is the API response for listing connected users.
type UserListResponse struct {
	Users []domain.UserSummary `json:"users"`
	Count int                  `json:"count"`
}

// RoomUsersResponse is the API response for the members of one room.
type RoomUsersResponse struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// ActivityResponse is the API response for the activity summary.
type ActivityResponse struct {
	activity.Summary
}

// SetNameRequest is the body of POST /set_name, as JSON or a form.
type SetNameRequest struct {
	Username string `json:"username" form:"username"`
}

// SetNameResponse confirms the stored username.
type SetNameResponse struct {
	Username string `json:"username"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
