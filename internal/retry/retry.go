// Package retry is a thin policy layer over sethvargo/go-retry with
// exponential backoff and a caller-supplied retryability predicate.
package retry

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy describes how often and on which errors an operation is retried.
type Policy struct {
	// MaxAttempts counts the first try plus retries. Values below 1 mean
	// a single attempt.
	MaxAttempts int
	// Base is the initial backoff interval, doubled on each retry.
	Base time.Duration
	// Retryable decides whether a failure is worth another attempt.
	// nil means nothing is retried.
	Retryable func(error) bool
}

// Do runs fn under the policy. The last error is returned unwrapped from
// the backoff machinery so errors.Is keeps working for callers.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.Base
	if base <= 0 {
		base = time.Second
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && p.Retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
