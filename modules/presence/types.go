package presence

import (
	"encoding/json"
	"time"

	domain "github.com/example/browser-chat/domain/presence"
)

// Validation constants
const (
	MaxUsernameLength = 50
	MaxMessageLength  = 5000
)

// Inbound event names. connect and disconnect are synthesized by the transport.
const (
	EventConnect             = "connect"
	EventDisconnect          = "disconnect"
	EventJoin                = "join"
	EventLeave               = "leave"
	EventMessage             = "message"
	EventSetUsername         = "set_username"
	EventHeartbeat           = "heartbeat"
	EventGetActiveUsers      = "get_active_users"
	EventGetRoomUsers        = "get_room_users"
	EventPrivateChatRequest  = "private_chat_request"
	EventPrivateChatResponse = "private_chat_response"
)

// Outbound event names.
const (
	EventConnectionConfirmed = "connection_confirmed"
	EventActiveUsers         = "active_users"
	EventRoomUsers           = "room_users"
	EventStatus              = "status"
	EventPrivateMessage      = "private_message"
	EventRoomJoined          = "room_joined"
	EventError               = "error"
)

// Status types carried in a status payload.
const (
	StatusJoin           = "join"
	StatusLeave          = "leave"
	StatusDisconnect     = "disconnect"
	StatusUsernameChange = "username_change"
)

// MessageKindPrivate marks a message addressed to a single user.
const MessageKindPrivate = "private"

// Envelope is the wire frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is one event submitted by the transport for a connection.
type Inbound struct {
	ConnID string
	Event  string
	Data   json.RawMessage

	// Hint is the identity hint supplied with connect.
	Hint string
}

// Emission is an outbound event addressed to an explicit set of connections.
type Emission struct {
	Recipients []string
	Event      string
	Payload    any
}

// Inbound payloads

type roomRequest struct {
	Room string `json:"room"`
}

// MessageRequest is the payload of an inbound message event.
// Type is "private" for direct messages; anything else is a room message.
type MessageRequest struct {
	Room   string `json:"room"`
	Type   string `json:"type"`
	Msg    string `json:"msg"`
	Target string `json:"target"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type privateChatRequest struct {
	To string `json:"to"`
}

type privateChatResponse struct {
	To       string `json:"to"`
	Accepted bool   `json:"accepted"`
}

// Outbound payloads

// ConnectionConfirmedPayload is sent to a newly registered connection.
type ConnectionConfirmedPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// ActiveUsersPayload lists every connected user.
type ActiveUsersPayload struct {
	Users []domain.UserSummary `json:"users"`
	Count int                  `json:"count"`
}

// RoomUsersPayload lists the display names in one room.
type RoomUsersPayload struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// StatusPayload is a human-readable presence notice.
type StatusPayload struct {
	Msg       string    `json:"msg"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// MessagePayload is a room message.
type MessagePayload struct {
	Msg       string    `json:"msg"`
	Username  string    `json:"username"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

// PrivateMessagePayload is a direct message. SentByMe is set on the sender's echo.
type PrivateMessagePayload struct {
	Msg       string    `json:"msg"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	SentByMe  bool      `json:"sentByMe,omitempty"`
}

// RoomJoinedPayload confirms a room change to the requester.
type RoomJoinedPayload struct {
	Room string `json:"room"`
}

// ErrorPayload reports a rejected request to the caller.
type ErrorPayload struct {
	Msg string `json:"msg"`
}

// PrivateChatRequestPayload relays a private chat invitation.
type PrivateChatRequestPayload struct {
	From string `json:"from"`
}

// PrivateChatResponsePayload relays the answer to an invitation.
type PrivateChatResponsePayload struct {
	From     string `json:"from"`
	Accepted bool   `json:"accepted"`
}

// ActivityKind classifies a journaled state change.
type ActivityKind string

const (
	ActivityConnected       ActivityKind = "connected"
	ActivityDisconnected    ActivityKind = "disconnected"
	ActivityRoomChanged     ActivityKind = "room_changed"
	ActivityUsernameChanged ActivityKind = "username_changed"
	ActivityMessagePosted   ActivityKind = "message_posted"
	ActivityPrivateMessage  ActivityKind = "private_message"
)

// Activity records one successful state change.
type Activity struct {
	Kind       ActivityKind
	ConnID     string
	Username   string
	Previous   string // previous room or previous name
	Room       string
	Target     string
	Recipients int
	At         time.Time
}

// Snapshot is a consistent read of the presence state.
type Snapshot struct {
	Rooms []domain.RoomSummary `json:"rooms"`
	Users []domain.UserSummary `json:"users"`
}

// RoomUsers returns the names of snapshot users in room.
func (s Snapshot) RoomUsers(room string) []string {
	names := make([]string, 0)
	for _, u := range s.Users {
		if u.Room == room {
			names = append(names, u.Username)
		}
	}
	return names
}
