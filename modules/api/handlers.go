package api

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/example/browser-chat/modules/presence"
)

const (
	usernameCookie       = "username"
	usernameCookieMaxAge = 30 * 24 * time.Hour
	defaultActivityLimit = 20
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.ws.HandleWebSocket))

	app.Post("/set_name", m.setName)

	// REST API v1
	api := app.Group("/api/v1")
	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:room/users", m.roomUsers)
	api.Get("/users", m.listUsers)
	api.Get("/activity", m.activitySummary)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.clientCount(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.presence.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}
	return c.JSON(RoomListResponse{Rooms: rooms, Count: len(rooms)})
}

// listUsers handles GET /api/v1/users.
func (m *APIModule) listUsers(c *fiber.Ctx) error {
	users, err := m.presence.ListUsers(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list users", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list users",
		})
	}
	return c.JSON(UserListResponse{Users: users, Count: len(users)})
}

// roomUsers handles GET /api/v1/rooms/:room/users.
func (m *APIModule) roomUsers(c *fiber.Ctx) error {
	room := c.Params("room")

	users, err := m.presence.RoomUsers(c.UserContext(), room)
	if err != nil {
		if errors.Is(err, presence.ErrInvalidRoom) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Invalid room: " + room,
			})
		}
		m.logger.Error("Failed to list room users", "room", room, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list room users",
		})
	}
	return c.JSON(RoomUsersResponse{Room: room, Users: users, Count: len(users)})
}

// activitySummary handles GET /api/v1/activity.
func (m *APIModule) activitySummary(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultActivityLimit)

	summary, err := m.activity.Summary(c.UserContext(), limit)
	if err != nil {
		m.logger.Error("Failed to get activity summary", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "activity_failed",
			Message: "Failed to get activity summary",
		})
	}
	return c.JSON(ActivityResponse{Summary: summary})
}

// setName handles POST /set_name. It stores the username in a cookie that
// the WebSocket endpoint reads as the connection's identity hint.
func (m *APIModule) setName(c *fiber.Ctx) error {
	var req SetNameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	name := strings.TrimSpace(req.Username)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Username is required",
		})
	}
	if utf8.RuneCountInString(name) > presence.MaxUsernameLength {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Username exceeds 50 characters",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     usernameCookie,
		Value:    name,
		Path:     "/",
		Expires:  time.Now().Add(usernameCookieMaxAge),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(SetNameResponse{Username: name})
}
