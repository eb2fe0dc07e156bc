package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/browser-chat/events"
)

// ServiceGetSummary is the request/reply service exposing the activity summary.
const ServiceGetSummary = "get-activity-summary"

// GetSummaryRequest asks for the summary with at most Limit recent entries.
type GetSummaryRequest struct {
	Limit int `json:"limit"`
}

// GetSummaryResponse carries the activity summary.
type GetSummaryResponse struct {
	Summary Summary `json:"summary"`
}

// Module consumes presence events and keeps an in-memory activity record.
type Module struct {
	store  *Store
	logger types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates an activity module retaining recentLimit entries.
func NewModule(recentLimit int, logger types.Logger) *Module {
	return &Module{
		store:  NewStore(recentLimit),
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// RegisterEventConsumers subscribes to every presence event.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.UserConnectedV1, m.handleUserConnected, m); err != nil {
		return fmt.Errorf("failed to register UserConnected consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserDisconnectedV1, m.handleUserDisconnected, m); err != nil {
		return fmt.Errorf("failed to register UserDisconnected consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.RoomChangedV1, m.handleRoomChanged, m); err != nil {
		return fmt.Errorf("failed to register RoomChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UsernameChangedV1, m.handleUsernameChanged, m); err != nil {
		return fmt.Errorf("failed to register UsernameChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.MessagePostedV1, m.handleMessagePosted, m); err != nil {
		return fmt.Errorf("failed to register MessagePosted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PrivateMessageSentV1, m.handlePrivateMessageSent, m); err != nil {
		return fmt.Errorf("failed to register PrivateMessageSent consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"UserConnected", "UserDisconnected", "RoomChanged", "UsernameChanged", "MessagePosted", "PrivateMessageSent"})
	return nil
}

func (m *Module) handleUserConnected(_ context.Context, ev events.UserConnectedEvent, _ *mono.Msg) error {
	m.store.Record(Entry{
		Kind:         KindConnected,
		ConnectionID: ev.ConnectionID,
		Username:     ev.Username,
		Room:         ev.Room,
		Timestamp:    ev.Timestamp,
	})
	return nil
}

func (m *Module) handleUserDisconnected(_ context.Context, ev events.UserDisconnectedEvent, _ *mono.Msg) error {
	m.store.Record(Entry{
		Kind:         KindDisconnected,
		ConnectionID: ev.ConnectionID,
		Username:     ev.Username,
		Room:         ev.Room,
		Timestamp:    ev.Timestamp,
	})
	return nil
}

func (m *Module) handleRoomChanged(_ context.Context, ev events.RoomChangedEvent, _ *mono.Msg) error {
	m.store.Record(Entry{
		Kind:         KindRoomChanged,
		ConnectionID: ev.ConnectionID,
		Username:     ev.Username,
		Room:         ev.ToRoom,
		Detail:       "from " + ev.FromRoom,
		Timestamp:    ev.Timestamp,
	})
	return nil
}

func (m *Module) handleUsernameChanged(_ context.Context, ev events.UsernameChangedEvent, _ *mono.Msg) error {
	m.store.Record(Entry{
		Kind:         KindUsernameChanged,
		ConnectionID: ev.ConnectionID,
		Username:     ev.NewUsername,
		Room:         ev.Room,
		Detail:       "was " + ev.OldUsername,
		Timestamp:    ev.Timestamp,
	})
	return nil
}

func (m *Module) handleMessagePosted(_ context.Context, ev events.MessagePostedEvent, _ *mono.Msg) error {
	m.store.Record(Entry{
		Kind:         KindMessagePosted,
		ConnectionID: ev.ConnectionID,
		Username:     ev.Username,
		Room:         ev.Room,
		Detail:       fmt.Sprintf("%d recipients", ev.Recipients),
		Timestamp:    ev.Timestamp,
	})
	return nil
}

func (m *Module) handlePrivateMessageSent(_ context.Context, ev events.PrivateMessageSentEvent, _ *mono.Msg) error {
	m.store.Record(Entry{
		Kind:      KindPrivateMessage,
		Username:  ev.From,
		Detail:    "to " + ev.To,
		Timestamp: ev.Timestamp,
	})
	return nil
}

// RegisterServices registers the activity summary service.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetSummary,
		json.Unmarshal,
		json.Marshal,
		m.handleGetSummary,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetSummary, err)
	}
	m.logger.Info("Registered activity services", "services", []string{ServiceGetSummary})
	return nil
}

func (m *Module) handleGetSummary(_ context.Context, req GetSummaryRequest, _ *mono.Msg) (GetSummaryResponse, error) {
	return GetSummaryResponse{Summary: m.store.Summary(req.Limit)}, nil
}

// Start implements mono.Module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started", "recentLimit", m.store.limit)
	return nil
}

// Stop implements mono.Module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	s := m.store.Summary(0)
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"online":  s.Online,
			"entries": len(s.Recent),
		},
	}
}

// Store returns the underlying activity store.
func (m *Module) Store() *Store {
	return m.store
}
