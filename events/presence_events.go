package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserConnectedEvent is emitted when a connection is registered.
type UserConnectedEvent struct {
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Room         string    `json:"room"`
	Timestamp    time.Time `json:"timestamp"`
}

// UserDisconnectedEvent is emitted when a registered connection goes away.
type UserDisconnectedEvent struct {
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Room         string    `json:"room"`
	Timestamp    time.Time `json:"timestamp"`
}

// RoomChangedEvent is emitted when a connection moves between rooms.
type RoomChangedEvent struct {
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	FromRoom     string    `json:"from_room"`
	ToRoom       string    `json:"to_room"`
	Timestamp    time.Time `json:"timestamp"`
}

// UsernameChangedEvent is emitted when a connection changes its display name.
type UsernameChangedEvent struct {
	ConnectionID string    `json:"connection_id"`
	OldUsername  string    `json:"old_username"`
	NewUsername  string    `json:"new_username"`
	Room         string    `json:"room"`
	Timestamp    time.Time `json:"timestamp"`
}

// MessagePostedEvent is emitted for every room message fanned out.
// The message text is not carried; history is not kept.
type MessagePostedEvent struct {
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Room         string    `json:"room"`
	Recipients   int       `json:"recipients"`
	Timestamp    time.Time `json:"timestamp"`
}

// PrivateMessageSentEvent is emitted when a private message reaches its target.
type PrivateMessageSentEvent struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the presence domain.
var (
	UserConnectedV1 = helper.EventDefinition[UserConnectedEvent](
		"presence",
		"UserConnected",
		"v1",
	)

	UserDisconnectedV1 = helper.EventDefinition[UserDisconnectedEvent](
		"presence",
		"UserDisconnected",
		"v1",
	)

	RoomChangedV1 = helper.EventDefinition[RoomChangedEvent](
		"presence",
		"RoomChanged",
		"v1",
	)

	UsernameChangedV1 = helper.EventDefinition[UsernameChangedEvent](
		"presence",
		"UsernameChanged",
		"v1",
	)

	MessagePostedV1 = helper.EventDefinition[MessagePostedEvent](
		"presence",
		"MessagePosted",
		"v1",
	)

	PrivateMessageSentV1 = helper.EventDefinition[PrivateMessageSentEvent](
		"presence",
		"PrivateMessageSent",
		"v1",
	)
)
