package billing

import (
	"context"
	"time"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// SearchCriteria narrows a bill search. Nil fields are ignored.
// Filter.Search matches bill number and notes.
type SearchCriteria struct {
	shared.Filter
	Status     *BillStatus
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// SalesSummary aggregates settled revenue for a period
type SalesSummary struct {
	TotalSales    valueobject.Money
	AverageAmount valueobject.Money
	BillCount     int64
}

// BillRepository defines the persistence port for bills and their lines
type BillRepository interface {
	// FindByID loads a bill with its lines, returning shared.ErrNotFound when missing
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindByNumber loads a bill by its bill number
	FindByNumber(ctx context.Context, billNumber string) (*Bill, error)

	// FindByCustomer lists a customer's bills, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Bill, error)

	// FindByStatus lists bills in a status, newest first
	FindByStatus(ctx context.Context, status BillStatus) ([]Bill, error)

	// FindByDateRange lists bills with from <= bill_date <= to
	FindByDateRange(ctx context.Context, from, to time.Time) ([]Bill, error)

	// FindPendingBefore lists PENDING bills dated before cutoff
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]Bill, error)

	// FindContainingItem lists bills with at least one line for itemID
	FindContainingItem(ctx context.Context, itemID uuid.UUID) ([]Bill, error)

	// Search returns one page of bills and the total match count
	Search(ctx context.Context, criteria SearchCriteria) ([]Bill, int64, error)

	// SummarizeSales totals PAID and PARTIAL_PAID bills dated in [from, to]
	SummarizeSales(ctx context.Context, from, to time.Time) (SalesSummary, error)

	// CountByStatus counts bills per status
	CountByStatus(ctx context.Context) (map[BillStatus]int64, error)

	// Create inserts a new bill and its lines
	Create(ctx context.Context, bill *Bill) error

	// SaveWithLock updates the bill header and replaces its lines only if the
	// stored version is bill.Version-1. Returns shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, bill *Bill) error
}
