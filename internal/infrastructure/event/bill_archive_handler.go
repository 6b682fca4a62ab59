package event

import (
	"context"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BillArchiver stores the final document of a bill and returns its key
type BillArchiver interface {
	Archive(ctx context.Context, billID uuid.UUID) (string, error)
}

// BillArchiveHandler archives the PDF of every bill that becomes PAID.
// Archiving failures are logged and never fail the payment.
type BillArchiveHandler struct {
	archiver BillArchiver
}

// NewBillArchiveHandler creates a handler
func NewBillArchiveHandler(archiver BillArchiver) *BillArchiveHandler {
	return &BillArchiveHandler{archiver: archiver}
}

// EventTypes returns the events this handler reacts to
func (h *BillArchiveHandler) EventTypes() []string {
	return []string{billing.EventTypeBillPaid}
}

// Handle archives the paid bill
func (h *BillArchiveHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*billing.BillPaidEvent)
	if !ok || h.archiver == nil {
		return nil
	}

	key, err := h.archiver.Archive(ctx, paid.AggregateID())
	if err != nil {
		logger.L(ctx).Warn("failed to archive bill document",
			logger.BillNumber(paid.BillNumber),
			zap.Error(err),
		)
		return nil
	}
	logger.L(ctx).Info("bill document archived",
		logger.BillNumber(paid.BillNumber),
		zap.String("key", key),
	)
	return nil
}

var _ shared.EventHandler = (*BillArchiveHandler)(nil)
