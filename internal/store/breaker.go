package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// BreakerSettings configures the circuit breaker guarding store calls.
type BreakerSettings struct {
	// ConsecutiveFailures is the number of transient failures in a row that opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Breaker wraps store calls in a circuit breaker. Only transient failures
// count against it; not found, validation and duplicate key errors do not.
// A nil *Breaker runs calls directly.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

// NewBreaker creates a Breaker named after the guarded resource.
func NewBreaker(name string, settings BreakerSettings, logger *slog.Logger) *Breaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("store circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			}
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](st)}
}

// Do runs fn through the breaker. Transient failures and rejected calls are
// reported wrapped in ErrUnavailable.
func (b *Breaker) Do(fn func() error) error {
	var err error
	if b == nil {
		err = fn()
	} else {
		_, err = b.cb.Execute(func() (any, error) {
			return nil, fn()
		})
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || isTransient(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// State reports the breaker state for health checks.
func (b *Breaker) State() gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}
	return b.cb.State()
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}
