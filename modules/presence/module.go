package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/example/browser-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// activityBufferSize bounds journaled activity waiting to be published.
const activityBufferSize = 256

// Module implements the presence module. It owns the engine that serializes
// all registry access and publishes presence activity on the EventBus.
type Module struct {
	catalog  *RoomCatalog
	engine   *Engine
	eventBus mono.EventBus
	logger   types.Logger

	activity chan Activity
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new presence module over catalog.
func NewModule(catalog *RoomCatalog, queueSize int, logger types.Logger, opts ...RouterOption) *Module {
	m := &Module{
		catalog:  catalog,
		logger:   logger,
		activity: make(chan Activity, activityBufferSize),
	}
	opts = append(opts, WithJournal(m.journal))
	m.engine = NewEngine(NewRouter(catalog, opts...), nil, queueSize, logger)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// SetDispatcher sets where emissions are delivered. It must be called before Start.
func (m *Module) SetDispatcher(d Dispatcher) {
	m.engine.dispatcher = d
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserConnectedV1.ToBase(),
		events.UserDisconnectedV1.ToBase(),
		events.RoomChangedV1.ToBase(),
		events.UsernameChangedV1.ToBase(),
		events.MessagePostedV1.ToBase(),
		events.PrivateMessageSentV1.ToBase(),
	}
}

// RegisterServices registers the read-only presence views.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListRooms,
		json.Unmarshal,
		json.Marshal,
		m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListUsers,
		json.Unmarshal,
		json.Marshal,
		m.handleListUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListUsers, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceRoomUsers,
		json.Unmarshal,
		json.Marshal,
		m.handleRoomUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomUsers, err)
	}

	m.logger.Info("Registered presence services",
		"services", []string{ServiceListRooms, ServiceListUsers, ServiceRoomUsers})
	return nil
}

// Start launches the engine loop and the activity publisher.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.engine.Run(ctx)
	}()
	go func() {
		defer m.wg.Done()
		m.publishLoop(ctx)
	}()

	m.logger.Info("Presence module started",
		"rooms", m.catalog.Rooms(),
		"defaultRoom", m.catalog.Default())
	return nil
}

// Stop stops the engine and waits for background goroutines.
func (m *Module) Stop(ctx context.Context) error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Presence module stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("presence module stop: %w", ctx.Err())
	}
}

// Health reports whether the engine is accepting events.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	depth, capacity := m.engine.QueueDepth()
	details := map[string]any{
		"queue_depth":    depth,
		"queue_capacity": capacity,
		"rooms":          len(m.catalog.Rooms()),
	}

	select {
	case <-m.engine.done:
		return mono.HealthStatus{Healthy: false, Message: "engine stopped", Details: details}
	default:
	}
	if m.cancel == nil {
		return mono.HealthStatus{Healthy: false, Message: "engine not started", Details: details}
	}
	if depth == capacity {
		return mono.HealthStatus{Healthy: false, Message: "engine queue saturated", Details: details}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}

// Engine returns the presence engine.
func (m *Module) Engine() *Engine {
	return m.engine
}

// Catalog returns the room catalog.
func (m *Module) Catalog() *RoomCatalog {
	return m.catalog
}

// journal runs on the engine goroutine and must not block.
func (m *Module) journal(a Activity) {
	select {
	case m.activity <- a:
	default:
		m.logger.Warn("Activity buffer full, dropping event", "kind", string(a.Kind), "conn", a.ConnID)
	}
}

func (m *Module) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-m.activity:
			if err := m.publish(a); err != nil {
				m.logger.Warn("Failed to publish presence event", "kind", string(a.Kind), "error", err)
			}
		}
	}
}

func (m *Module) publish(a Activity) error {
	if m.eventBus == nil {
		return nil
	}

	switch a.Kind {
	case ActivityConnected:
		return events.UserConnectedV1.Publish(m.eventBus, events.UserConnectedEvent{
			ConnectionID: a.ConnID,
			Username:     a.Username,
			Room:         a.Room,
			Timestamp:    a.At,
		}, nil)
	case ActivityDisconnected:
		return events.UserDisconnectedV1.Publish(m.eventBus, events.UserDisconnectedEvent{
			ConnectionID: a.ConnID,
			Username:     a.Username,
			Room:         a.Room,
			Timestamp:    a.At,
		}, nil)
	case ActivityRoomChanged:
		return events.RoomChangedV1.Publish(m.eventBus, events.RoomChangedEvent{
			ConnectionID: a.ConnID,
			Username:     a.Username,
			FromRoom:     a.Previous,
			ToRoom:       a.Room,
			Timestamp:    a.At,
		}, nil)
	case ActivityUsernameChanged:
		return events.UsernameChangedV1.Publish(m.eventBus, events.UsernameChangedEvent{
			ConnectionID: a.ConnID,
			OldUsername:  a.Previous,
			NewUsername:  a.Username,
			Room:         a.Room,
			Timestamp:    a.At,
		}, nil)
	case ActivityMessagePosted:
		return events.MessagePostedV1.Publish(m.eventBus, events.MessagePostedEvent{
			ConnectionID: a.ConnID,
			Username:     a.Username,
			Room:         a.Room,
			Recipients:   a.Recipients,
			Timestamp:    a.At,
		}, nil)
	case ActivityPrivateMessage:
		return events.PrivateMessageSentV1.Publish(m.eventBus, events.PrivateMessageSentEvent{
			From:      a.Username,
			To:        a.Target,
			Timestamp: a.At,
		}, nil)
	}
	return fmt.Errorf("unknown activity kind %q", a.Kind)
}
