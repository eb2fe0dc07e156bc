package presence

import (
	"fmt"
	"strings"
)

// DefaultRooms is the room set used when none is configured.
var DefaultRooms = []string{"General", "Introductions", "off-topics", "Hobbies and sports"}

// RoomCatalog is the fixed, ordered set of valid room names.
// It is immutable after construction and safe for concurrent use.
type RoomCatalog struct {
	rooms       []string
	index       map[string]struct{}
	defaultRoom string
}

// NewRoomCatalog builds a catalog from rooms. Blank and duplicate names are
// dropped. defaultRoom must be one of rooms; when empty the first room is used.
func NewRoomCatalog(rooms []string, defaultRoom string) (*RoomCatalog, error) {
	c := &RoomCatalog{
		rooms: make([]string, 0, len(rooms)),
		index: make(map[string]struct{}, len(rooms)),
	}
	for _, room := range rooms {
		room = strings.TrimSpace(room)
		if room == "" {
			continue
		}
		if _, dup := c.index[room]; dup {
			continue
		}
		c.index[room] = struct{}{}
		c.rooms = append(c.rooms, room)
	}
	if len(c.rooms) == 0 {
		return nil, ErrEmptyCatalog
	}

	defaultRoom = strings.TrimSpace(defaultRoom)
	if defaultRoom == "" {
		defaultRoom = c.rooms[0]
	}
	if _, ok := c.index[defaultRoom]; !ok {
		return nil, fmt.Errorf("default room %q: %w", defaultRoom, ErrInvalidRoom)
	}
	c.defaultRoom = defaultRoom
	return c, nil
}

// IsValid reports whether room belongs to the catalog.
func (c *RoomCatalog) IsValid(room string) bool {
	_, ok := c.index[room]
	return ok
}

// Rooms returns the rooms in configured order.
func (c *RoomCatalog) Rooms() []string {
	out := make([]string, len(c.rooms))
	copy(out, c.rooms)
	return out
}

// Default returns the room new connections are placed in.
func (c *RoomCatalog) Default() string {
	return c.defaultRoom
}
