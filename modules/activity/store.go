package activity

import (
	"sync"
	"time"
)

// DefaultRecentLimit bounds the recent activity log.
const DefaultRecentLimit = 100

// Kinds of recorded activity.
const (
	KindConnected       = "connected"
	KindDisconnected    = "disconnected"
	KindRoomChanged     = "room_changed"
	KindUsernameChanged = "username_changed"
	KindMessagePosted   = "message_posted"
	KindPrivateMessage  = "private_message"
)

// Entry is one recorded presence event.
type Entry struct {
	Kind         string    `json:"kind"`
	ConnectionID string    `json:"connection_id,omitempty"`
	Username     string    `json:"username"`
	Room         string    `json:"room,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Summary is a point-in-time view of the store.
type Summary struct {
	Since          time.Time      `json:"since"`
	Totals         map[string]int `json:"totals"`
	MessagesByRoom map[string]int `json:"messages_by_room"`
	PeakOnline     int            `json:"peak_online"`
	Online         int            `json:"online"`
	Recent         []Entry        `json:"recent"`
}

// Store keeps activity counters and a bounded log of recent entries.
// It is safe for concurrent use.
type Store struct {
	mu             sync.RWMutex
	since          time.Time
	totals         map[string]int
	messagesByRoom map[string]int
	online         int
	peakOnline     int
	recent         []Entry // ring buffer, oldest at next when full
	next           int
	limit          int
}

// NewStore creates a store that keeps at most limit recent entries.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &Store{
		since:          time.Now(),
		totals:         make(map[string]int),
		messagesByRoom: make(map[string]int),
		recent:         make([]Entry, 0, limit),
		limit:          limit,
	}
}

// Record adds e to the counters and the recent log.
func (s *Store) Record(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totals[e.Kind]++
	switch e.Kind {
	case KindConnected:
		s.online++
		if s.online > s.peakOnline {
			s.peakOnline = s.online
		}
	case KindDisconnected:
		if s.online > 0 {
			s.online--
		}
	case KindMessagePosted:
		s.messagesByRoom[e.Room]++
	}

	if len(s.recent) < s.limit {
		s.recent = append(s.recent, e)
		return
	}
	s.recent[s.next] = e
	s.next = (s.next + 1) % s.limit
}

// Summary returns the counters and up to limit most recent entries, newest
// first. A limit <= 0 returns every retained entry.
func (s *Store) Summary(limit int) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.recent)
	if limit <= 0 || limit > n {
		limit = n
	}
	recent := make([]Entry, 0, limit)
	for i := 0; i < limit; i++ {
		// newest entry sits just before next
		idx := (s.next - 1 - i + 2*n) % n
		recent = append(recent, s.recent[idx])
	}

	totals := make(map[string]int, len(s.totals))
	for k, v := range s.totals {
		totals[k] = v
	}
	byRoom := make(map[string]int, len(s.messagesByRoom))
	for k, v := range s.messagesByRoom {
		byRoom[k] = v
	}

	return Summary{
		Since:          s.since,
		Totals:         totals,
		MessagesByRoom: byRoom,
		PeakOnline:     s.peakOnline,
		Online:         s.online,
		Recent:         recent,
	}
}
