package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/event"
)

// ErrStageUnavailable is returned while a guarded stage's breaker is open.
var ErrStageUnavailable = errors.New("publisher stage unavailable")

type BreakerSettings struct {
	Name             string
	FailureThreshold uint32        // consecutive failures that open the breaker, default 5
	OpenTimeout      time.Duration // how long the breaker stays open, default 30s
}

// BreakerPublisher guards a remote stage (the broker) so that an outage
// fails publishes immediately instead of holding every aggregate lock for a
// network timeout.
type BreakerPublisher struct {
	next    Publisher
	name    string
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerPublisher(next Publisher, s BreakerSettings, logger *slog.Logger) *BreakerPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := s.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &BreakerPublisher{
		next: next,
		name: s.Name,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        s.Name,
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("publisher breaker state changed",
					"stage", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		}),
	}
}

func (b *BreakerPublisher) Publish(ctx context.Context, e event.Event) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Publish(ctx, e)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrStageUnavailable, b.name)
	}
	return err
}

// State reports closed, half-open or open.
func (b *BreakerPublisher) State() string { return b.breaker.State().String() }
