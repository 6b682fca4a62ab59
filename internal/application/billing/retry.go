package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/infrastructure/logger"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy bounds how often a unit of work is re-run after losing an
// optimistic lock or timing out on a row lock.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 20 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		exp.InitialInterval = p.InitialBackoff
	}
	if p.MaxBackoff > 0 {
		exp.MaxInterval = p.MaxBackoff
	}
	exp.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// withRetry runs fn until it succeeds, fails with a non-retryable error or
// the attempts run out. An exhausted retry budget surfaces as ErrContention.
func (s *BillingService) withRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := fn()
		if err == nil || shared.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, s.retry.backOff(ctx), func(err error, wait time.Duration) {
		logger.L(ctx).Warn("billing operation contended, retrying",
			logger.Operation(operation),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordRetry(ctx, operation)
		}
	})
	if err != nil && shared.IsRetryable(err) {
		return fmt.Errorf("%w: %s gave up after %d attempts", shared.ErrContention, operation, attempt)
	}
	return err
}
