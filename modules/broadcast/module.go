package broadcast

import (
	"context"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/browser-chat/modules/presence"
)

// BroadcastModule owns the delivery hub that writes presence emissions to WebSocket clients.
type BroadcastModule struct {
	hub        *Hub
	sendBuffer int
	cancelHub  context.CancelFunc
	logger     types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)
var _ presence.Dispatcher = (*Hub)(nil)

// NewModule creates a new BroadcastModule.
func NewModule(sendBuffer int, logger types.Logger) *BroadcastModule {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &BroadcastModule{
		hub:        NewHub(logger),
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	m.logger.Info("Broadcast module started", "sendBuffer", m.sendBuffer)
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait() // Wait for hub to finish
	}
	m.logger.Info("Broadcast module stopped", "clients", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.cancelHub != nil,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// GetHub returns the delivery hub.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}

// SendBuffer returns the configured per-client send buffer length.
func (m *BroadcastModule) SendBuffer() int {
	return m.sendBuffer
}
