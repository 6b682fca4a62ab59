package billing

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/inventory"
	"github.com/bookshop/backend/internal/domain/partner"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/bookshop/backend/internal/infrastructure/logger"
	"github.com/bookshop/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const serviceName = "BillingService"

// Config holds the billing rules applied by the service
type Config struct {
	TaxRate        decimal.Decimal
	OverdueDays    int
	IdempotencyTTL time.Duration
	Retry          RetryPolicy
}

// DefaultConfig returns the default billing rules
func DefaultConfig() Config {
	return Config{
		TaxRate:        billing.DefaultTaxRate,
		OverdueDays:    30,
		IdempotencyTTL: 24 * time.Hour,
		Retry:          DefaultRetryPolicy(),
	}
}

// BillingService orchestrates the bill lifecycle. Every mutating operation
// runs in one transaction that covers the bill, its number and the stock it
// reserves or releases.
type BillingService struct {
	bills          billing.BillRepository
	customers      partner.CustomerRepository
	txScope        TransactionScope
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BillingMetrics
	taxRate        decimal.Decimal
	overdueDays    int
	idempotencyTTL time.Duration
	retry          RetryPolicy
	now            func() time.Time
}

// NewBillingService creates a new BillingService. bills and customers serve
// reads outside a transaction.
func NewBillingService(
	bills billing.BillRepository,
	customers partner.CustomerRepository,
	txScope TransactionScope,
	cfg Config,
) *BillingService {
	return &BillingService{
		bills:          bills,
		customers:      customers,
		txScope:        txScope,
		taxRate:        cfg.TaxRate,
		overdueDays:    cfg.OverdueDays,
		idempotencyTTL: cfg.IdempotencyTTL,
		retry:          cfg.Retry,
		now:            time.Now,
	}
}

// SetEventPublisher sets the publisher for bill events
func (s *BillingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables idempotent creates keyed by client request key
func (s *BillingService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetBillingMetrics sets the billing metrics recorder
func (s *BillingService) SetBillingMetrics(bm *telemetry.BillingMetrics) {
	s.metrics = bm
}

// Create creates a PENDING bill and reserves stock for every line.
// Nothing is written when any line fails validation.
func (s *BillingService) Create(ctx context.Context, req CreateBillRequest) (resp *BillResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Create")
	defer s.finish(ctx, span, "create", s.now(), &err)

	if err := validateLineInputs(req.Lines); err != nil {
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = logger.GetIdempotencyKey(ctx)
	}
	if key != "" && s.idempotency != nil {
		claimed, billID, err := s.idempotency.Claim(ctx, key, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !claimed {
			if billID == uuid.Nil {
				return nil, shared.ErrContention.WithDetail("idempotency_key", key)
			}
			logger.L(ctx).Info("replaying idempotent bill create", logger.BillID(billID.String()))
			return s.Get(ctx, billID)
		}
		defer func() {
			if err != nil {
				if relErr := s.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
					logger.L(ctx).Warn("failed to release idempotency key", zap.Error(relErr))
				}
			}
		}()
	}

	var bill *billing.Bill
	err = s.withRetry(ctx, "create", func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			created, err := s.createInTx(ctx, repos, req)
			if err != nil {
				return err
			}
			bill = created
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if key != "" && s.idempotency != nil {
		if err := s.idempotency.Complete(ctx, key, bill.ID, s.idempotencyTTL); err != nil {
			logger.L(ctx).Warn("failed to record idempotency key", zap.Error(err), logger.BillID(bill.ID.String()))
		}
	}

	telemetry.SetAttributes(span, "bill.number", bill.BillNumber, "bill.total", bill.TotalAmount.String())
	logger.L(ctx).Info("bill created",
		logger.BillID(bill.ID.String()),
		logger.BillNumber(bill.BillNumber),
		zap.String("total", bill.TotalAmount.String()),
		zap.Int("lines", bill.ItemCount()),
	)
	s.recordStock(ctx, bill.TotalQuantity(), 0)
	s.publish(ctx, bill)

	response := ToBillResponse(bill)
	return &response, nil
}

func (s *BillingService) createInTx(ctx context.Context, repos TransactionalRepositories, req CreateBillRequest) (*billing.Bill, error) {
	if _, err := repos.Customers().FindByID(ctx, req.CustomerID); err != nil {
		return nil, customerError(req.CustomerID, err)
	}

	ledger := inventory.NewStockLedger(repos.Items(), repos.Movements())
	requested := aggregateQuantities(req.Lines)

	items := make(map[uuid.UUID]*catalog.Item, len(requested))
	for _, itemID := range sortedItemIDs(requested) {
		item, err := ledger.Verify(ctx, itemID, requested[itemID])
		if err != nil {
			return nil, err
		}
		items[itemID] = item
	}

	drafts := buildDrafts(req.Lines, items)
	discount := moneyOrZero(req.DiscountAmount)
	if err := precheckPricing(drafts, discount, s.taxRate); err != nil {
		return nil, err
	}

	number, err := repos.Numbers().Next(ctx)
	if err != nil {
		return nil, err
	}

	bill, err := billing.NewBill(number, req.CustomerID, s.taxRate, drafts, discount, req.Notes)
	if err != nil {
		return nil, err
	}
	bill.BillDate = s.now().UTC()

	for _, itemID := range sortedItemIDs(requested) {
		if _, err := ledger.Reserve(ctx, itemID, requested[itemID], bill.BillNumber); err != nil {
			return nil, err
		}
	}

	if err := repos.Bills().Create(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// Update replaces the lines, discount and notes of a DRAFT or PENDING bill.
// Stock moves by the per-item difference between the old and new lines.
func (s *BillingService) Update(ctx context.Context, billID uuid.UUID, req UpdateBillRequest) (resp *BillResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Update", telemetry.AttrBillID.String(billID.String()))
	defer s.finish(ctx, span, "update", s.now(), &err)

	if err := validateLineInputs(req.Lines); err != nil {
		return nil, err
	}

	var (
		bill               *billing.Bill
		reserved, released int
	)
	err = s.withRetry(ctx, "update", func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			updated, res, rel, err := s.updateInTx(ctx, repos, billID, req)
			if err != nil {
				return err
			}
			bill, reserved, released = updated, res, rel
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("bill updated",
		logger.BillID(bill.ID.String()),
		logger.BillNumber(bill.BillNumber),
		zap.String("total", bill.TotalAmount.String()),
		zap.Int("reserved", reserved),
		zap.Int("released", released),
	)
	s.recordStock(ctx, reserved, released)
	s.publish(ctx, bill)

	response := ToBillResponse(bill)
	return &response, nil
}

func (s *BillingService) updateInTx(ctx context.Context, repos TransactionalRepositories, billID uuid.UUID, req UpdateBillRequest) (*billing.Bill, int, int, error) {
	bill, err := loadBill(ctx, repos.Bills(), billID)
	if err != nil {
		return nil, 0, 0, err
	}
	if !bill.Status.IsModifiable() {
		return nil, 0, 0, shared.NewDomainErrorf("INVALID_STATE", "Cannot update bill %s in %s status", bill.BillNumber, bill.Status).
			WithDetail("status", bill.Status.String())
	}

	ledger := inventory.NewStockLedger(repos.Items(), repos.Movements())
	previous := bill.QuantitiesByItem()
	requested := aggregateQuantities(req.Lines)

	items := make(map[uuid.UUID]*catalog.Item, len(requested))
	for _, itemID := range sortedItemIDs(requested) {
		extra := requested[itemID] - previous[itemID]
		if extra < 0 {
			extra = 0
		}
		item, err := ledger.Verify(ctx, itemID, extra)
		if err != nil {
			return nil, 0, 0, err
		}
		items[itemID] = item
	}

	if err := bill.ReplaceLines(buildDrafts(req.Lines, items), moneyOrZero(req.DiscountAmount), req.Notes); err != nil {
		return nil, 0, 0, err
	}

	union := make(map[uuid.UUID]int, len(previous)+len(requested))
	for id := range previous {
		union[id] = 0
	}
	for id := range requested {
		union[id] = 0
	}

	reserved, released := 0, 0
	for _, itemID := range sortedItemIDs(union) {
		delta := requested[itemID] - previous[itemID]
		switch {
		case delta > 0:
			if _, err := ledger.Reserve(ctx, itemID, delta, bill.BillNumber); err != nil {
				return nil, 0, 0, err
			}
			reserved += delta
		case delta < 0:
			if _, err := ledger.Release(ctx, itemID, -delta, bill.BillNumber); err != nil {
				return nil, 0, 0, err
			}
			released -= delta
		}
	}

	if err := repos.Bills().SaveWithLock(ctx, bill); err != nil {
		return nil, 0, 0, err
	}
	return bill, reserved, released, nil
}

// MarkPaid settles a bill. Stock is not touched.
func (s *BillingService) MarkPaid(ctx context.Context, billID uuid.UUID) (*BillResponse, error) {
	return s.transition(ctx, billID, "mark_paid", func(_ context.Context, _ TransactionalRepositories, b *billing.Bill) (int, error) {
		return 0, b.MarkPaid()
	})
}

// MarkPartialPaid records a partial payment on an unpaid bill
func (s *BillingService) MarkPartialPaid(ctx context.Context, billID uuid.UUID) (*BillResponse, error) {
	return s.transition(ctx, billID, "mark_partial_paid", func(_ context.Context, _ TransactionalRepositories, b *billing.Bill) (int, error) {
		return 0, b.MarkPartialPaid()
	})
}

// MarkOverdue flags an unpaid bill as overdue
func (s *BillingService) MarkOverdue(ctx context.Context, billID uuid.UUID) (*BillResponse, error) {
	return s.transition(ctx, billID, "mark_overdue", func(_ context.Context, _ TransactionalRepositories, b *billing.Bill) (int, error) {
		return 0, b.MarkOverdue()
	})
}

// Cancel voids a non-terminal bill and returns every reserved unit to stock.
func (s *BillingService) Cancel(ctx context.Context, billID uuid.UUID) (*BillResponse, error) {
	return s.transition(ctx, billID, "cancel", func(ctx context.Context, repos TransactionalRepositories, b *billing.Bill) (int, error) {
		if err := b.Cancel(); err != nil {
			return 0, err
		}
		ledger := inventory.NewStockLedger(repos.Items(), repos.Movements())
		quantities := b.QuantitiesByItem()
		released := 0
		for _, itemID := range sortedItemIDs(quantities) {
			if _, err := ledger.Release(ctx, itemID, quantities[itemID], b.BillNumber); err != nil {
				return 0, err
			}
			released += quantities[itemID]
		}
		return released, nil
	})
}

type transitionFunc func(ctx context.Context, repos TransactionalRepositories, bill *billing.Bill) (released int, err error)

func (s *BillingService) transition(ctx context.Context, billID uuid.UUID, operation string, apply transitionFunc) (resp *BillResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, operation, telemetry.AttrBillID.String(billID.String()))
	defer s.finish(ctx, span, operation, s.now(), &err)

	var (
		bill     *billing.Bill
		released int
	)
	err = s.withRetry(ctx, operation, func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			loaded, err := loadBill(ctx, repos.Bills(), billID)
			if err != nil {
				return err
			}
			rel, err := apply(ctx, repos, loaded)
			if err != nil {
				return err
			}
			if err := repos.Bills().SaveWithLock(ctx, loaded); err != nil {
				return err
			}
			bill, released = loaded, rel
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("bill status changed",
		logger.Operation(operation),
		logger.BillID(bill.ID.String()),
		logger.BillNumber(bill.BillNumber),
		zap.String("status", bill.Status.String()),
	)
	s.recordStock(ctx, 0, released)
	s.publish(ctx, bill)

	response := ToBillResponse(bill)
	return &response, nil
}

// FlagOverdueBills marks every PENDING bill older than the overdue window as
// OVERDUE and returns how many were flagged. Bills that changed concurrently
// are skipped.
func (s *BillingService) FlagOverdueBills(ctx context.Context) (int, error) {
	candidates, err := s.bills.FindPendingBefore(ctx, s.overdueCutoff(s.overdueDays))
	if err != nil {
		return 0, err
	}

	flagged := 0
	for i := range candidates {
		if _, err := s.MarkOverdue(ctx, candidates[i].ID); err != nil {
			switch shared.CategoryOf(err) {
			case shared.CategoryInvalidState, shared.CategoryContention, shared.CategoryNotFound:
				logger.L(ctx).Debug("skipping bill for overdue flag",
					logger.BillNumber(candidates[i].BillNumber), zap.Error(err))
				continue
			}
			return flagged, err
		}
		flagged++
	}
	return flagged, nil
}

// finish records the outcome of an operation on its span and metrics
func (s *BillingService) finish(ctx context.Context, span trace.Span, operation string, start time.Time, errp *error) {
	defer span.End()

	err := *errp
	code := ""
	if err != nil {
		code = string(shared.CategoryOf(err))
		telemetry.RecordError(span, err)
		if shared.CategoryOf(err) == shared.CategoryUnexpected {
			logger.L(ctx).Error("billing operation failed", logger.Operation(operation), zap.Error(err))
		} else {
			logger.L(ctx).Debug("billing operation rejected", logger.Operation(operation), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordOperation(ctx, operation, time.Since(start), code)
	}
}

func (s *BillingService) recordStock(ctx context.Context, reserved, released int) {
	if s.metrics != nil && (reserved > 0 || released > 0) {
		s.metrics.RecordStockMovement(ctx, reserved, released)
	}
}

// publish sends the bill's pending events. Failures are logged, not returned:
// the transaction has already committed.
func (s *BillingService) publish(ctx context.Context, bill *billing.Bill) {
	events := bill.PullEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("failed to publish bill events",
			logger.BillID(bill.ID.String()), zap.Error(err))
	}
}

func (s *BillingService) overdueCutoff(days int) time.Time {
	if days < 0 {
		days = 0
	}
	return s.now().AddDate(0, 0, -days)
}

func loadBill(ctx context.Context, bills billing.BillRepository, billID uuid.UUID) (*billing.Bill, error) {
	bill, err := bills.FindByID(ctx, billID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf("BILL_NOT_FOUND", "Bill not found: %s", billID).
				WithDetail("bill_id", billID.String())
		}
		return nil, err
	}
	return bill, nil
}

func customerError(customerID uuid.UUID, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainErrorf("CUSTOMER_NOT_FOUND", "Customer not found: %s", customerID).
			WithDetail("customer_id", customerID.String())
	}
	return err
}

func validateLineInputs(lines []BillLineInput) error {
	if len(lines) == 0 {
		return shared.NewDomainError("EMPTY_BILL", "Bill must have at least one line")
	}
	for i, line := range lines {
		if line.ItemID == uuid.Nil {
			return shared.NewDomainErrorf("INVALID_ARGUMENT", "Line %d: item ID is required", i+1)
		}
		if line.Quantity < billing.MinLineQuantity || line.Quantity > billing.MaxLineQuantity {
			return shared.NewDomainErrorf("INVALID_QUANTITY", "Line %d: quantity must be between %d and %d",
				i+1, billing.MinLineQuantity, billing.MaxLineQuantity).
				WithDetail("line", i+1)
		}
	}
	return nil
}

// aggregateQuantities sums requested quantities per item across lines
func aggregateQuantities(lines []BillLineInput) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		out[line.ItemID] += line.Quantity
	}
	return out
}

// sortedItemIDs orders item IDs so concurrent bills lock rows in the same order
func sortedItemIDs(quantities map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func buildDrafts(lines []BillLineInput, items map[uuid.UUID]*catalog.Item) []billing.LineDraft {
	drafts := make([]billing.LineDraft, len(lines))
	for i, line := range lines {
		item := items[line.ItemID]
		drafts[i] = billing.LineDraft{
			ItemID:             item.ID,
			ItemCode:           item.Code,
			ItemName:           item.Name,
			Quantity:           line.Quantity,
			UnitPrice:          item.Price,
			DiscountPercentage: decimalOrZero(line.DiscountPercentage),
		}
	}
	return drafts
}

// precheckPricing runs the calculator before any write so pricing errors
// never consume a bill number or stock.
func precheckPricing(drafts []billing.LineDraft, discount valueobject.Money, taxRate decimal.Decimal) error {
	inputs := make([]billing.PriceInput, len(drafts))
	for i, d := range drafts {
		inputs[i] = billing.PriceInput{
			UnitPrice:          d.UnitPrice,
			Quantity:           d.Quantity,
			DiscountPercentage: d.DiscountPercentage,
		}
	}
	_, err := billing.Calculate(inputs, discount, taxRate)
	return err
}

func moneyOrZero(d *decimal.Decimal) valueobject.Money {
	if d == nil {
		return valueobject.Zero()
	}
	return valueobject.NewMoney(*d)
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
