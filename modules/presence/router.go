package presence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Router applies inbound events to the registry and computes the resulting
// emissions. It holds no locks; the Engine serializes every call.
type Router struct {
	registry  *ConnectionRegistry
	catalog   *RoomCatalog
	tracker   *PresenceTracker
	guestName GuestNamer
	now       func() time.Time
	journal   func(Activity)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) {
		r.now = now
		r.registry.now = now
	}
}

// WithGuestNamer overrides guest name generation.
func WithGuestNamer(namer GuestNamer) RouterOption {
	return func(r *Router) { r.guestName = namer }
}

// WithJournal registers a callback invoked for every successful state change.
func WithJournal(journal func(Activity)) RouterOption {
	return func(r *Router) { r.journal = journal }
}

// NewRouter creates a Router with an empty registry over catalog.
func NewRouter(catalog *RoomCatalog, opts ...RouterOption) *Router {
	registry := NewConnectionRegistry()
	r := &Router{
		registry:  registry,
		catalog:   catalog,
		tracker:   NewPresenceTracker(registry, catalog),
		guestName: NewGuestNamer(nil, nil),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the router's registry. Callers must respect engine serialization.
func (r *Router) Registry() *ConnectionRegistry { return r.registry }

// Tracker returns the presence views over the registry.
func (r *Router) Tracker() *PresenceTracker { return r.tracker }

// Catalog returns the room catalog.
func (r *Router) Catalog() *RoomCatalog { return r.catalog }

// Handle decodes in and dispatches it to the matching operation.
func (r *Router) Handle(in Inbound) ([]Emission, error) {
	switch in.Event {
	case EventConnect:
		return r.Connect(in.ConnID, in.Hint)
	case EventDisconnect:
		return r.Disconnect(in.ConnID)
	case EventJoin:
		var req roomRequest
		if err := decode(in.Data, &req); err != nil {
			return r.reject(in.ConnID, "Invalid join payload", err)
		}
		return r.Join(in.ConnID, req.Room)
	case EventLeave:
		var req roomRequest
		if err := decode(in.Data, &req); err != nil {
			return r.reject(in.ConnID, "Invalid leave payload", err)
		}
		return r.Leave(in.ConnID, req.Room)
	case EventMessage:
		var req MessageRequest
		if err := decode(in.Data, &req); err != nil {
			return r.reject(in.ConnID, "Invalid message payload", err)
		}
		return r.SendMessage(in.ConnID, req)
	case EventSetUsername:
		name, err := decodeUsername(in.Data)
		if err != nil {
			return r.reject(in.ConnID, "Invalid set_username payload", err)
		}
		return r.SetUsername(in.ConnID, name)
	case EventHeartbeat:
		return r.Heartbeat(in.ConnID)
	case EventGetActiveUsers:
		return r.ActiveUsers(in.ConnID)
	case EventGetRoomUsers:
		var req roomRequest
		if err := decode(in.Data, &req); err != nil {
			return r.reject(in.ConnID, "Invalid get_room_users payload", err)
		}
		return r.RoomUsers(in.ConnID, req.Room)
	case EventPrivateChatRequest:
		var req privateChatRequest
		if err := decode(in.Data, &req); err != nil {
			return r.reject(in.ConnID, "Invalid private_chat_request payload", err)
		}
		return r.RequestPrivateChat(in.ConnID, req.To)
	case EventPrivateChatResponse:
		var req privateChatResponse
		if err := decode(in.Data, &req); err != nil {
			return r.reject(in.ConnID, "Invalid private_chat_response payload", err)
		}
		return r.RespondPrivateChat(in.ConnID, req.To, req.Accepted)
	default:
		return r.reject(in.ConnID, "Unknown event: "+in.Event,
			fmt.Errorf("%q: %w", in.Event, ErrUnknownEvent))
	}
}

// Connect registers id in the default room. A blank or oversized hint gets a guest name.
func (r *Router) Connect(id, hint string) ([]Emission, error) {
	name := strings.TrimSpace(hint)
	if name == "" || utf8.RuneCountInString(name) > MaxUsernameLength {
		name = r.guestName()
	}

	conn, err := r.registry.Register(id, name, r.catalog.Default())
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	var out emissions
	self := []string{id}
	out.add(self, EventConnectionConfirmed, ConnectionConfirmedPayload{Username: conn.DisplayName, Room: conn.Room})
	out.add(self, EventActiveUsers, r.activeUsers())
	out.add(self, EventRoomUsers, r.roomUsers(conn.Room))

	roommates := without(r.tracker.MemberIDs(conn.Room), id)
	out.add(roommates, EventRoomUsers, r.roomUsers(conn.Room))
	out.add(roommates, EventStatus, r.status(conn.DisplayName+" has joined the room.", StatusJoin))
	out.add(without(r.tracker.AllIDs(), id), EventActiveUsers, r.activeUsers())

	r.record(Activity{Kind: ActivityConnected, ConnID: id, Username: conn.DisplayName, Room: conn.Room})
	return out, nil
}

// Disconnect removes id and notifies its last room and everyone else.
// Unknown ids are reported as ErrNotFound with no emission.
func (r *Router) Disconnect(id string) ([]Emission, error) {
	conn, err := r.registry.Remove(id)
	if err != nil {
		return nil, fmt.Errorf("disconnect: %w", err)
	}

	var out emissions
	roommates := r.tracker.MemberIDs(conn.Room)
	out.add(roommates, EventRoomUsers, r.roomUsers(conn.Room))
	out.add(roommates, EventStatus, r.status(conn.DisplayName+" has disconnected.", StatusDisconnect))
	out.add(r.tracker.AllIDs(), EventActiveUsers, r.activeUsers())

	r.record(Activity{Kind: ActivityDisconnected, ConnID: id, Username: conn.DisplayName, Room: conn.Room})
	return out, nil
}

// Join moves id into room. Invalid requests are rejected without emission.
// Joining the current room re-sends the full notification set.
func (r *Router) Join(id, room string) ([]Emission, error) {
	conn, err := r.registry.Get(id)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	if conn.DisplayName == "" {
		return nil, fmt.Errorf("join %s: %w", id, ErrNoIdentity)
	}
	room = strings.TrimSpace(room)
	if !r.catalog.IsValid(room) {
		return nil, fmt.Errorf("join %q: %w", room, ErrInvalidRoom)
	}

	var out emissions
	if conn.Room != room {
		if err := r.registry.SetRoom(id, room); err != nil {
			return nil, fmt.Errorf("join: %w", err)
		}
		remaining := r.tracker.MemberIDs(conn.Room)
		out.add(remaining, EventStatus, r.status(conn.DisplayName+" has left the room.", StatusLeave))
		out.add(remaining, EventRoomUsers, r.roomUsers(conn.Room))
		r.record(Activity{Kind: ActivityRoomChanged, ConnID: id, Username: conn.DisplayName, Previous: conn.Room, Room: room})
	}

	self := []string{id}
	out.add(self, EventRoomUsers, r.roomUsers(room))
	out.add(self, EventRoomJoined, RoomJoinedPayload{Room: room})

	members := r.tracker.MemberIDs(room)
	out.add(members, EventStatus, r.status(conn.DisplayName+" has joined the room.", StatusJoin))
	out.add(members, EventRoomUsers, r.roomUsers(room))
	out.add(r.tracker.AllIDs(), EventActiveUsers, r.activeUsers())
	return out, nil
}

// Leave returns id to the default room. The room argument must be non-blank
// but the connection always leaves the room it is actually in.
func (r *Router) Leave(id, room string) ([]Emission, error) {
	conn, err := r.registry.Get(id)
	if err != nil {
		return nil, fmt.Errorf("leave: %w", err)
	}
	if strings.TrimSpace(room) == "" {
		return nil, fmt.Errorf("leave: room: %w", ErrEmptyInput)
	}

	home := r.catalog.Default()
	if conn.Room == home {
		return nil, nil
	}
	if err := r.registry.SetRoom(id, home); err != nil {
		return nil, fmt.Errorf("leave: %w", err)
	}

	var out emissions
	remaining := r.tracker.MemberIDs(conn.Room)
	out.add(remaining, EventStatus, r.status(conn.DisplayName+" has left the room.", StatusLeave))
	out.add(remaining, EventRoomUsers, r.roomUsers(conn.Room))
	out.add(r.tracker.MemberIDs(home), EventRoomUsers, r.roomUsers(home))
	out.add(r.tracker.AllIDs(), EventActiveUsers, r.activeUsers())

	r.record(Activity{Kind: ActivityRoomChanged, ConnID: id, Username: conn.DisplayName, Previous: conn.Room, Room: home})
	return out, nil
}

// SendMessage delivers a room message, or a private message when req.Type is "private".
func (r *Router) SendMessage(id string, req MessageRequest) ([]Emission, error) {
	conn, err := r.registry.Get(id)
	if err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}
	if strings.TrimSpace(req.Msg) == "" {
		return nil, fmt.Errorf("message: text: %w", ErrEmptyInput)
	}
	if len(req.Msg) > MaxMessageLength {
		return r.reject(id, fmt.Sprintf("Message exceeds %d characters", MaxMessageLength),
			fmt.Errorf("message: %w", ErrMessageTooLong))
	}
	if req.Type == MessageKindPrivate {
		return r.sendPrivate(conn.ID, conn.DisplayName, req)
	}

	room := strings.TrimSpace(req.Room)
	if room == "" {
		room = r.catalog.Default()
	}
	if !r.catalog.IsValid(room) {
		return r.reject(id, "Invalid room: "+room, fmt.Errorf("message %q: %w", room, ErrInvalidRoom))
	}

	var out emissions
	members := r.tracker.MemberIDs(room)
	out.add(members, EventMessage, MessagePayload{
		Msg:       req.Msg,
		Username:  conn.DisplayName,
		Room:      room,
		Timestamp: r.now(),
	})

	r.record(Activity{Kind: ActivityMessagePosted, ConnID: id, Username: conn.DisplayName, Room: room, Recipients: len(members)})
	return out, nil
}

func (r *Router) sendPrivate(id, from string, req MessageRequest) ([]Emission, error) {
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return nil, fmt.Errorf("private message: target: %w", ErrEmptyInput)
	}
	peer, err := r.registry.FindByDisplayName(target)
	if err != nil {
		return r.reject(id, "User "+target+" not found",
			fmt.Errorf("private message %q: %w", target, ErrTargetNotFound))
	}

	payload := PrivateMessagePayload{
		Msg:       req.Msg,
		From:      from,
		To:        target,
		Timestamp: r.now(),
	}
	echo := payload
	echo.SentByMe = true

	var out emissions
	out.add([]string{peer.ID}, EventPrivateMessage, payload)
	out.add([]string{id}, EventPrivateMessage, echo)

	r.record(Activity{Kind: ActivityPrivateMessage, ConnID: id, Username: from, Target: target, Recipients: 1})
	return out, nil
}

// SetUsername renames id and refreshes every list that shows the name.
func (r *Router) SetUsername(id, name string) ([]Emission, error) {
	conn, err := r.registry.Get(id)
	if err != nil {
		return nil, fmt.Errorf("set username: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("set username: %w", ErrEmptyInput)
	}
	if utf8.RuneCountInString(name) > MaxUsernameLength {
		return r.reject(id, fmt.Sprintf("Username exceeds %d characters", MaxUsernameLength),
			fmt.Errorf("set username: %w", ErrUsernameTooLong))
	}
	if err := r.registry.SetDisplayName(id, name); err != nil {
		return nil, fmt.Errorf("set username: %w", err)
	}

	var out emissions
	members := r.tracker.MemberIDs(conn.Room)
	out.add(members, EventStatus, r.status(conn.DisplayName+" is now known as "+name+".", StatusUsernameChange))
	out.add(r.tracker.AllIDs(), EventActiveUsers, r.activeUsers())
	out.add(members, EventRoomUsers, r.roomUsers(conn.Room))

	r.record(Activity{Kind: ActivityUsernameChanged, ConnID: id, Username: name, Previous: conn.DisplayName, Room: conn.Room})
	return out, nil
}

// Heartbeat re-sends the caller's user lists. It never mutates state.
func (r *Router) Heartbeat(id string) ([]Emission, error) {
	conn, err := r.registry.Get(id)
	if err != nil {
		return nil, fmt.Errorf("heartbeat: %w", err)
	}
	var out emissions
	out.add([]string{id}, EventActiveUsers, r.activeUsers())
	out.add([]string{id}, EventRoomUsers, r.roomUsers(conn.Room))
	return out, nil
}

// ActiveUsers sends the global user list to the caller.
func (r *Router) ActiveUsers(id string) ([]Emission, error) {
	if _, err := r.registry.Get(id); err != nil {
		return nil, fmt.Errorf("get active users: %w", err)
	}
	var out emissions
	out.add([]string{id}, EventActiveUsers, r.activeUsers())
	return out, nil
}

// RoomUsers sends the member list of room, or of the caller's room when blank.
func (r *Router) RoomUsers(id, room string) ([]Emission, error) {
	conn, err := r.registry.Get(id)
	if err != nil {
		return nil, fmt.Errorf("get room users: %w", err)
	}
	room = strings.TrimSpace(room)
	if room == "" {
		room = conn.Room
	}
	if !r.catalog.IsValid(room) {
		return r.reject(id, "Invalid room: "+room, fmt.Errorf("get room users %q: %w", room, ErrInvalidRoom))
	}
	var out emissions
	out.add([]string{id}, EventRoomUsers, r.roomUsers(room))
	return out, nil
}

// RequestPrivateChat relays a private chat invitation to the user named to.
func (r *Router) RequestPrivateChat(id, to string) ([]Emission, error) {
	return r.relay(id, to, EventPrivateChatRequest, func(from string) any {
		return PrivateChatRequestPayload{From: from}
	})
}

// RespondPrivateChat relays the answer to a private chat invitation.
func (r *Router) RespondPrivateChat(id, to string, accepted bool) ([]Emission, error) {
	return r.relay(id, to, EventPrivateChatResponse, func(from string) any {
		return PrivateChatResponsePayload{From: from, Accepted: accepted}
	})
}

func (r *Router) relay(id, to, event string, payload func(from string) any) ([]Emission, error) {
	conn, err := r.registry.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", event, err)
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, fmt.Errorf("%s: target: %w", event, ErrEmptyInput)
	}
	peer, err := r.registry.FindByDisplayName(to)
	if err != nil {
		return r.reject(id, "User "+to+" not found", fmt.Errorf("%s %q: %w", event, to, ErrTargetNotFound))
	}
	var out emissions
	out.add([]string{peer.ID}, event, payload(conn.DisplayName))
	return out, nil
}

func (r *Router) activeUsers() ActiveUsersPayload {
	users := r.tracker.AllUsers()
	return ActiveUsersPayload{Users: users, Count: len(users)}
}

func (r *Router) roomUsers(room string) RoomUsersPayload {
	names := r.tracker.MemberNames(room)
	return RoomUsersPayload{Room: room, Users: names, Count: len(names)}
}

func (r *Router) status(msg, kind string) StatusPayload {
	return StatusPayload{Msg: msg, Type: kind, Timestamp: r.now()}
}

// reject answers the caller with an error event and returns err.
func (r *Router) reject(id, msg string, err error) ([]Emission, error) {
	return []Emission{{Recipients: []string{id}, Event: EventError, Payload: ErrorPayload{Msg: msg}}}, err
}

func (r *Router) record(a Activity) {
	if r.journal == nil {
		return
	}
	a.At = r.now()
	r.journal(a)
}

type emissions []Emission

// add appends an emission unless it has no recipients.
func (e *emissions) add(to []string, event string, payload any) {
	if len(to) == 0 {
		return
	}
	*e = append(*e, Emission{Recipients: to, Event: event, Payload: payload})
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func decode(data json.RawMessage, v any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// decodeUsername accepts either {"username": "..."} or a bare JSON string.
func decodeUsername(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return name, nil
	}
	var req usernameRequest
	if err := decode(data, &req); err != nil {
		return "", err
	}
	return req.Username, nil
}
