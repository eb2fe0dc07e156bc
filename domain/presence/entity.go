package presence

import "time"

// Connection represents one live transport session.
type Connection struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"username"`
	Room        string    `json:"room"`
	ConnectedAt time.Time `json:"connected_at"`

	// Seq orders connections by registration.
	Seq uint64 `json:"-"`
}

// UserSummary is the public view of a connected user.
type UserSummary struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// RoomSummary is a catalog room with its live member count.
type RoomSummary struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}
