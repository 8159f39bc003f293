package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/travel-diary/internal/core/domain"
)

// Outcome tells the executor what a failed call means.
type Outcome struct {
	Retry        bool
	CountFailure bool
}

type Classify func(err error) Outcome

// Executor runs named calls under one policy. Each operation name gets its
// own circuit breaker.
type Executor struct {
	policy Policy

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(policy Policy) *Executor {
	return &Executor{
		policy:   policy.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (e *Executor) Run(ctx context.Context, operation string, fn func(context.Context) error, classify Classify) error {
	_, err := Call(ctx, e, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, classify)
	return err
}

// Call runs fn under the executor's policy and returns its value.
func Call[T any](ctx context.Context, e *Executor, operation string, fn func(context.Context) (T, error), classify Classify) (T, error) {
	var zero T
	if fn == nil {
		return zero, fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classify == nil {
		classify = CountAll
	}

	if !e.policy.Breaker.Enabled {
		return retry(ctx, e.policy, op, fn, classify)
	}

	out, err := e.breaker(op, classify).Execute(func() (any, error) {
		return retry(ctx, e.policy, op, fn, classify)
	})
	if err != nil {
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

func retry[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error), classify Classify) (T, error) {
	var zero T
	backoff := p.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.Attempts || !classify(err).Retry {
			return zero, err
		}

		wait := min(backoff, p.MaxBackoff)
		slog.Warn("retry_attempt",
			"operation", op,
			"attempt", attempt,
			"max_attempts", p.Attempts,
			"backoff_ms", wait.Milliseconds(),
			"error", err,
		)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, err
			case <-timer.C:
			}
		}
		backoff = min(time.Duration(float64(backoff)*p.Multiplier), p.MaxBackoff)
	}
}

func (e *Executor) breaker(operation string, classify Classify) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[operation]; ok {
		return cb
	}

	bp := e.policy.Breaker
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        operation,
		MaxRequests: bp.HalfOpenMaxCalls,
		Timeout:     bp.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			counted := counts.Requests
			if counts.TotalExclusions < counted {
				counted -= counts.TotalExclusions
			} else {
				counted = 0
			}
			if counted == 0 || counted < bp.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counted) >= bp.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).CountFailure
		},
		// Errors that do not count are left out of the breaker's tally.
		IsExcluded: func(err error) bool {
			return err != nil && !classify(err).CountFailure
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	e.breakers[operation] = cb
	return cb
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// CountAll treats every error as a permanent breaker failure.
func CountAll(error) Outcome {
	return Outcome{CountFailure: true}
}

// RetryTemporary retries errors marked domain.ErrTemporary. Context
// cancellation by the caller is not held against the dependency.
func RetryTemporary(err error) Outcome {
	if errors.Is(err, context.Canceled) {
		return Outcome{}
	}
	return Outcome{
		Retry:        domain.IsKind(err, domain.ErrTemporary),
		CountFailure: true,
	}
}
