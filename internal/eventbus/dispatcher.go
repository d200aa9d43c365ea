package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
)

// Handler performs side effects for one event type. Handlers must be
// idempotent: nothing deduplicates deliveries.
type Handler interface {
	EventType() event.Type
	Handle(ctx context.Context, e event.Event) error
}

type handlerFunc struct {
	eventType event.Type
	fn        func(ctx context.Context, e event.Event) error
}

// HandlerFunc adapts a function into a Handler for eventType.
func HandlerFunc(eventType event.Type, fn func(ctx context.Context, e event.Event) error) Handler {
	return handlerFunc{eventType: eventType, fn: fn}
}

func (h handlerFunc) EventType() event.Type                           { return h.eventType }
func (h handlerFunc) Handle(ctx context.Context, e event.Event) error { return h.fn(ctx, e) }

// Dispatcher fans events out to handlers registered for their type, in
// registration order. A failing or panicking handler is logged and does not
// stop the others.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]Handler
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[event.Type][]Handler),
		logger:   logger,
	}
}

func (d *Dispatcher) Register(handlers ...Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, h := range handlers {
		d.handlers[h.EventType()] = append(d.handlers[h.EventType()], h)
		d.logger.Debug("registered handler for event type",
			"event_type", h.EventType(),
		)
	}
}

// Publish never fails: handler errors are side-effect failures, not
// failures of the transition that produced the event.
func (d *Dispatcher) Publish(ctx context.Context, e event.Event) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[e.EventType()]...)
	d.mu.RUnlock()

	for _, h := range handlers {
		if err := d.invoke(ctx, h, e); err != nil {
			d.logger.Error("event handler failed",
				"event_type", e.EventType(),
				"event_id", e.EventID(),
				"aggregate_id", e.AggregateID(),
				"error", err,
			)
		}
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, e event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, e)
}
