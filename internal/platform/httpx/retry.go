package httpx

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
)

// RetryPolicy bounds how often a single provider call is repeated. MaxRetries counts
// extra attempts, so MaxRetries=1 means at most two calls.
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// Retryable decides whether err deserves another attempt. Defaults to apierr.IsRetryable.
	Retryable func(error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  1,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
		Retryable:   apierr.IsRetryable,
	}
}

// NoRetry runs the operation exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 0, Retryable: apierr.IsRetryable}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseBackoff
	if b.InitialInterval <= 0 {
		b.InitialInterval = 500 * time.Millisecond
	}
	b.MaxInterval = p.MaxBackoff
	if b.MaxInterval <= 0 {
		b.MaxInterval = 5 * time.Second
	}
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0.2
	b.Reset()
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.WithMaxRetries(b, uint64(maxRetries))
}

// Do runs op under the policy. Non-retryable errors stop immediately. onRetry, when
// set, is called before each sleep with the 1-based attempt that failed.
func Do(ctx context.Context, p RetryPolicy, op func(ctx context.Context) error, onRetry func(attempt int, err error, wait time.Duration)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = apierr.IsRetryable
	}
	attempt := 0
	wrapped := func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(apierr.Classify("request", err))
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		if onRetry != nil {
			onRetry(attempt, err, wait)
		}
	}
	return backoff.RetryNotify(wrapped, backoff.WithContext(p.backOff(), ctx), notify)
}
