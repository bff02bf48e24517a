// Package transport wraps each configured aggregator adapter in its own
// circuit breaker, so a state aggregator that is down stops being hammered
// mid-sweep instead of burning through retry budget on every pending row.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/neighborhood-lab/care-commons/internal/providers"
	"github.com/neighborhood-lab/care-commons/pkg/care"
)

// BreakerAdapter wraps a providers.AggregatorAdapter with a per-aggregator
// circuit breaker. A trip surfaces as a RETRY outcome rather than a
// distinct status, so the engine's existing backoff schedule handles it.
type BreakerAdapter struct {
	name    string
	inner   providers.AggregatorAdapter
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerAdapter constructs a BreakerAdapter for one named aggregator.
// The name labels the breaker and appears in its CIRCUIT_OPEN error message.
func NewBreakerAdapter(name string, inner providers.AggregatorAdapter) *BreakerAdapter {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerAdapter{
		name:    name,
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Submit delegates to the wrapped adapter through the breaker. A result that
// requires a retry counts as a breaker failure, so an aggregator that keeps
// failing trips the breaker. A trip is reported as a retryable CIRCUIT_OPEN
// result rather than an error, so a circuit-open aggregator looks identical
// to a slow one to the caller. Errors returned by the wrapped adapter itself
// are passed through unchanged.
func (a *BreakerAdapter) Submit(ctx context.Context, submission *care.AggregatorSubmission) (care.AdapterResult, error) {
	retryable := fmt.Errorf("%s: adapter result requires retry", a.name)
	raw, err := a.breaker.Execute(func() (interface{}, error) {
		res, err := a.inner.Submit(ctx, submission)
		if err == nil && res.RequiresRetry {
			return res, retryable
		}
		return res, err
	})
	if err == retryable {
		return raw.(care.AdapterResult), nil
	}
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return care.AdapterResult{
				RequiresRetry: true,
				ErrorCode:     "CIRCUIT_OPEN",
				ErrorMessage:  fmt.Sprintf("%s: circuit breaker open", a.name),
			}, nil
		}
		return care.AdapterResult{}, err
	}
	return raw.(care.AdapterResult), nil
}
