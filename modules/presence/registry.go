package presence

import (
	"fmt"
	"slices"
	"time"

	domain "github.com/example/browser-chat/domain/presence"
)

// ConnectionRegistry maps connection ids to connection state.
//
// It is not safe for concurrent use: the Engine is its single writer and
// every read happens on the engine goroutine. Accessors return copies so a
// caller can never mutate registry state behind the engine's back.
type ConnectionRegistry struct {
	conns   map[string]*domain.Connection
	nextSeq uint64
	now     func() time.Time
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[string]*domain.Connection),
		now:   time.Now,
	}
}

// Register inserts a new connection.
func (r *ConnectionRegistry) Register(id, displayName, room string) (domain.Connection, error) {
	if _, exists := r.conns[id]; exists {
		return domain.Connection{}, fmt.Errorf("register %s: %w", id, ErrDuplicateConnection)
	}
	r.nextSeq++
	conn := &domain.Connection{
		ID:          id,
		DisplayName: displayName,
		Room:        room,
		ConnectedAt: r.now(),
		Seq:         r.nextSeq,
	}
	r.conns[id] = conn
	return *conn, nil
}

// Get returns the connection registered under id.
func (r *ConnectionRegistry) Get(id string) (domain.Connection, error) {
	conn, ok := r.conns[id]
	if !ok {
		return domain.Connection{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return *conn, nil
}

// Remove deletes the connection and returns its last state.
func (r *ConnectionRegistry) Remove(id string) (domain.Connection, error) {
	conn, ok := r.conns[id]
	if !ok {
		return domain.Connection{}, fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	delete(r.conns, id)
	return *conn, nil
}

// SetRoom moves the connection to room. Room validity is the caller's concern.
func (r *ConnectionRegistry) SetRoom(id, room string) error {
	conn, ok := r.conns[id]
	if !ok {
		return fmt.Errorf("set room %s: %w", id, ErrNotFound)
	}
	conn.Room = room
	return nil
}

// SetDisplayName renames the connection.
func (r *ConnectionRegistry) SetDisplayName(id, name string) error {
	conn, ok := r.conns[id]
	if !ok {
		return fmt.Errorf("set display name %s: %w", id, ErrNotFound)
	}
	conn.DisplayName = name
	return nil
}

// All returns a snapshot of every connection in registration order.
func (r *ConnectionRegistry) All() []domain.Connection {
	out := make([]domain.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, *conn)
	}
	slices.SortFunc(out, func(a, b domain.Connection) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return out
}

// FindByDisplayName returns the earliest registered connection using name.
// Display names are not unique; first registered wins.
func (r *ConnectionRegistry) FindByDisplayName(name string) (domain.Connection, error) {
	var found *domain.Connection
	for _, conn := range r.conns {
		if conn.DisplayName != name {
			continue
		}
		if found == nil || conn.Seq < found.Seq {
			found = conn
		}
	}
	if found == nil {
		return domain.Connection{}, fmt.Errorf("find %q: %w", name, ErrNotFound)
	}
	return *found, nil
}

// Len returns the number of live connections.
func (r *ConnectionRegistry) Len() int {
	return len(r.conns)
}
