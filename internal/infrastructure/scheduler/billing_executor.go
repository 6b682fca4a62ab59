package scheduler

import (
	"context"
	"fmt"

	"github.com/bookshop/backend/internal/infrastructure/telemetry"
)

// OverdueFlagger moves stale PENDING bills to OVERDUE
type OverdueFlagger interface {
	FlagOverdueBills(ctx context.Context) (int, error)
}

// BillingExecutor maps maintenance job types onto the billing service
type BillingExecutor struct {
	overdue OverdueFlagger
}

// NewBillingExecutor creates a new BillingExecutor
func NewBillingExecutor(overdue OverdueFlagger) *BillingExecutor {
	return &BillingExecutor{overdue: overdue}
}

// Execute runs job under a job_type profiling label
func (e *BillingExecutor) Execute(ctx context.Context, job *Job) (affected int, err error) {
	telemetry.WithProfilingLabels(ctx, map[string]string{"job_type": string(job.Type)}, func(ctx context.Context) {
		switch job.Type {
		case JobTypeOverdueSweep:
			affected, err = e.overdue.FlagOverdueBills(ctx)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
		}
	})
	return affected, err
}

// Ensure BillingExecutor implements JobExecutor
var _ JobExecutor = (*BillingExecutor)(nil)
