package httpx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
)

func fastPolicy(maxRetries int) RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxRetries = maxRetries
	p.BaseBackoff = time.Millisecond
	p.MaxBackoff = 2 * time.Millisecond
	return p
}

func TestDoRetriesTimeoutOnce(t *testing.T) {
	calls := 0
	retries := 0
	err := Do(context.Background(), fastPolicy(1), func(ctx context.Context) error {
		calls++
		return apierr.UpstreamTimeout("openai_timeout", context.DeadlineExceeded)
	}, func(attempt int, err error, wait time.Duration) { retries++ })
	if apierr.KindOf(err) != apierr.KindUpstreamTimeout {
		t.Fatalf("kind: want=%q got=%q", apierr.KindUpstreamTimeout, apierr.KindOf(err))
	}
	if calls != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
	if retries != 1 {
		t.Fatalf("retries: want=1 got=%d", retries)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return apierr.ContractViolation("missing_field", errors.New("missing imagePrompt"))
	}, nil)
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
	if apierr.KindOf(err) != apierr.KindContractViolation {
		t.Fatalf("kind: want=%q got=%q", apierr.KindContractViolation, apierr.KindOf(err))
	}
}

func TestDoSucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(1), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return apierr.UpstreamResponse("ideogram_http_503", 503, errors.New("unavailable"))
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
}

func TestNoRetryRunsOnce(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), NoRetry(), func(ctx context.Context) error {
		calls++
		return apierr.UpstreamTimeout("t", context.DeadlineExceeded)
	}, nil)
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestDoCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, fastPolicy(2), func(ctx context.Context) error {
		calls++
		return nil
	}, nil)
	if calls != 0 {
		t.Fatalf("calls: want=0 got=%d", calls)
	}
	if apierr.KindOf(err) != apierr.KindCanceled {
		t.Fatalf("kind: want=%q got=%q", apierr.KindCanceled, apierr.KindOf(err))
	}
}
