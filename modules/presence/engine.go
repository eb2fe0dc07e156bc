package presence

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
)

// DefaultQueueSize is the engine queue capacity used when none is configured.
const DefaultQueueSize = 1024

// Dispatcher delivers emissions to transport connections.
type Dispatcher interface {
	Deliver(Emission)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(Emission)

// Deliver calls f(em).
func (f DispatcherFunc) Deliver(em Emission) { f(em) }

type job struct {
	in   Inbound
	read func(*Router)
}

// Engine is the single writer for presence state. Every router operation and
// every read runs on the goroutine started by Run, one at a time, in
// submission order.
type Engine struct {
	router     *Router
	dispatcher Dispatcher
	logger     types.Logger
	queue      chan job
	done       chan struct{}

	mu      sync.Mutex
	pending map[string]struct{} // queued refresh events
}

// NewEngine creates an engine around router. queueSize <= 0 uses DefaultQueueSize.
func NewEngine(router *Router, dispatcher Dispatcher, queueSize int, logger types.Logger) *Engine {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Engine{
		router:     router,
		dispatcher: dispatcher,
		logger:     logger,
		queue:      make(chan job, queueSize),
		done:       make(chan struct{}),
		pending:    make(map[string]struct{}),
	}
}

// Run processes queued events until ctx is cancelled. Events still queued at
// that point are discarded.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Presence engine stopping", "dropped", len(e.queue))
			return
		case j := <-e.queue:
			e.process(j)
		}
	}
}

// Wait blocks until Run has returned.
func (e *Engine) Wait() {
	<-e.done
}

// Submit queues in for processing. Refresh events are coalesced per
// connection and fail fast with ErrQueueFull; all other events wait for
// queue space until ctx is done.
func (e *Engine) Submit(ctx context.Context, in Inbound) error {
	select {
	case <-e.done:
		return ErrEngineStopped
	default:
	}

	if isRefresh(in.Event) {
		return e.submitRefresh(in)
	}

	select {
	case e.queue <- job{in: in}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit %s: %w", in.Event, ctx.Err())
	case <-e.done:
		return ErrEngineStopped
	}
}

func (e *Engine) submitRefresh(in Inbound) error {
	key := refreshKey(in)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, queued := e.pending[key]; queued {
		return nil
	}
	select {
	case e.queue <- job{in: in}:
		e.pending[key] = struct{}{}
		return nil
	default:
		return fmt.Errorf("submit %s: %w", in.Event, ErrQueueFull)
	}
}

// Snapshot reads the room counts and user list on the engine goroutine.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	result := make(chan Snapshot, 1)
	read := func(r *Router) {
		result <- Snapshot{
			Rooms: r.Tracker().RoomSummaries(),
			Users: r.Tracker().AllUsers(),
		}
	}

	select {
	case e.queue <- job{read: read}:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-e.done:
		return Snapshot{}, ErrEngineStopped
	}

	select {
	case snap := <-result:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-e.done:
		return Snapshot{}, ErrEngineStopped
	}
}

// QueueDepth returns the number of queued events and the queue capacity.
func (e *Engine) QueueDepth() (int, int) {
	return len(e.queue), cap(e.queue)
}

func (e *Engine) process(j job) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Recovered panic in presence engine",
				"event", j.in.Event,
				"conn", j.in.ConnID,
				"panic", fmt.Sprint(r))
		}
	}()

	if j.read != nil {
		j.read(e.router)
		return
	}

	if isRefresh(j.in.Event) {
		e.mu.Lock()
		delete(e.pending, refreshKey(j.in))
		e.mu.Unlock()
	}

	out, err := e.router.Handle(j.in)
	if err != nil {
		e.logRejection(j.in, err)
	}
	for _, em := range out {
		if e.dispatcher == nil {
			continue
		}
		e.dispatcher.Deliver(em)
	}
}

func (e *Engine) logRejection(in Inbound, err error) {
	switch {
	case isSilent(err):
		e.logger.Debug("Event ignored", "event", in.Event, "conn", in.ConnID, "reason", err.Error())
	case isCallerError(err):
		e.logger.Warn("Event rejected", "event", in.Event, "conn", in.ConnID, "error", err)
	default:
		e.logger.Error("Event failed", "event", in.Event, "conn", in.ConnID, "error", err)
	}
}

// refreshKey identifies identical refresh requests from one connection.
func refreshKey(in Inbound) string {
	return in.ConnID + "\x00" + in.Event + "\x00" + string(in.Data)
}

func isRefresh(event string) bool {
	switch event {
	case EventHeartbeat, EventGetActiveUsers, EventGetRoomUsers:
		return true
	}
	return false
}
