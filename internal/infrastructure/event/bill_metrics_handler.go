package event

import (
	"context"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/infrastructure/telemetry"
)

// BillMetricsHandler feeds bill lifecycle events into BillingMetrics
type BillMetricsHandler struct {
	metrics *telemetry.BillingMetrics
}

// NewBillMetricsHandler creates a handler. A nil metrics set makes every
// event a no-op.
func NewBillMetricsHandler(metrics *telemetry.BillingMetrics) *BillMetricsHandler {
	return &BillMetricsHandler{metrics: metrics}
}

// EventTypes returns the bill events this handler records
func (h *BillMetricsHandler) EventTypes() []string {
	return []string{
		billing.EventTypeBillCreated,
		billing.EventTypeBillUpdated,
		billing.EventTypeBillPaid,
		billing.EventTypeBillCancelled,
	}
}

// Handle records one event
func (h *BillMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.metrics == nil {
		return nil
	}

	switch e := event.(type) {
	case *billing.BillCreatedEvent:
		h.metrics.RecordBillCreated(ctx, e.TotalAmount.Amount())
	case *billing.BillUpdatedEvent:
		h.metrics.RecordBillUpdated(ctx)
	case *billing.BillPaidEvent:
		h.metrics.RecordBillPaid(ctx)
	case *billing.BillCancelledEvent:
		h.metrics.RecordBillCancelled(ctx)
	}
	return nil
}

var _ shared.EventHandler = (*BillMetricsHandler)(nil)
