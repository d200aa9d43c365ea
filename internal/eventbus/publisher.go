package eventbus

import (
	"context"
	"fmt"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
)

// Publisher delivers one event. Implementations must keep call order.
type Publisher interface {
	Publish(ctx context.Context, e event.Event) error
}

type PublisherFunc func(ctx context.Context, e event.Event) error

func (f PublisherFunc) Publish(ctx context.Context, e event.Event) error { return f(ctx, e) }

// Composite runs its stages in a fixed order and stops at the first failure,
// so a handler never sees an event the append-only log did not accept.
type Composite struct {
	stages []Publisher
}

func NewComposite(stages ...Publisher) *Composite {
	return &Composite{stages: stages}
}

func (c *Composite) Publish(ctx context.Context, e event.Event) error {
	for i, stage := range c.stages {
		if err := stage.Publish(ctx, e); err != nil {
			return fmt.Errorf("publish %s (stage %d): %w", e.EventType(), i, err)
		}
	}
	return nil
}

// PublishAll publishes events in order and stops at the first failure.
func PublishAll(ctx context.Context, p Publisher, events []event.Event) error {
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
