package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Get retrieves a bill by ID
func (s *BillingService) Get(ctx context.Context, billID uuid.UUID) (*BillResponse, error) {
	bill, err := loadBill(ctx, s.bills, billID)
	if err != nil {
		return nil, err
	}
	response := ToBillResponse(bill)
	return &response, nil
}

// GetByNumber retrieves a bill by its bill number
func (s *BillingService) GetByNumber(ctx context.Context, billNumber string) (*BillResponse, error) {
	billNumber = strings.ToUpper(strings.TrimSpace(billNumber))
	if billNumber == "" {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "Bill number is required")
	}

	bill, err := s.bills.FindByNumber(ctx, billNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf("BILL_NOT_FOUND", "Bill not found: %s", billNumber).
				WithDetail("bill_number", billNumber)
		}
		return nil, err
	}
	response := ToBillResponse(bill)
	return &response, nil
}

// ListByCustomer lists a customer's bills, newest first. An unknown customer
// is NotFound rather than an empty list.
func (s *BillingService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]BillResponse, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, customerError(customerID, err)
	}

	bills, err := s.bills.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToBillResponses(bills), nil
}

// ListByStatus lists bills in a status
func (s *BillingService) ListByStatus(ctx context.Context, status string) ([]BillResponse, error) {
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	bills, err := s.bills.FindByStatus(ctx, st)
	if err != nil {
		return nil, err
	}
	return ToBillResponses(bills), nil
}

// ListByDateRange lists bills dated within [from, to], both inclusive
func (s *BillingService) ListByDateRange(ctx context.Context, from, to time.Time) ([]BillResponse, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	bills, err := s.bills.FindByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return ToBillResponses(bills), nil
}

// ListToday lists bills dated since local midnight
func (s *BillingService) ListToday(ctx context.Context) ([]BillResponse, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.ListByDateRange(ctx, start, start.Add(24*time.Hour-time.Nanosecond))
}

// ListOverdue lists PENDING bills older than days. days <= 0 uses the
// configured overdue window.
func (s *BillingService) ListOverdue(ctx context.Context, days int) ([]BillResponse, error) {
	if days <= 0 {
		days = s.overdueDays
	}

	bills, err := s.bills.FindPendingBefore(ctx, s.overdueCutoff(days))
	if err != nil {
		return nil, err
	}
	return ToBillResponses(bills), nil
}

// ListContainingItem lists bills with at least one line for the item
func (s *BillingService) ListContainingItem(ctx context.Context, itemID uuid.UUID) ([]BillResponse, error) {
	bills, err := s.bills.FindContainingItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return ToBillResponses(bills), nil
}

// Search returns a page of bills matching filter
func (s *BillingService) Search(ctx context.Context, filter BillSearchFilter) (shared.Paginated[BillResponse], error) {
	criteria := billing.SearchCriteria{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		CustomerID: filter.CustomerID,
		From:       filter.From,
		To:         filter.To,
	}
	if filter.Status != "" {
		st, err := parseStatus(filter.Status)
		if err != nil {
			return shared.Paginated[BillResponse]{}, err
		}
		criteria.Status = &st
	}
	if filter.From != nil && filter.To != nil {
		if err := validateRange(*filter.From, *filter.To); err != nil {
			return shared.Paginated[BillResponse]{}, err
		}
	}

	bills, total, err := s.bills.Search(ctx, criteria)
	if err != nil {
		return shared.Paginated[BillResponse]{}, err
	}
	return shared.NewPaginated(ToBillResponses(bills), total, criteria.Page, criteria.PageSize), nil
}

// SalesSummary totals PAID and PARTIAL_PAID bills dated within [from, to]
func (s *BillingService) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummaryResponse, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	summary, err := s.bills.SummarizeSales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &SalesSummaryResponse{
		From:          from,
		To:            to,
		TotalSales:    summary.TotalSales.Amount(),
		AverageAmount: summary.AverageAmount.Amount(),
		BillCount:     summary.BillCount,
	}, nil
}

// CountByStatus counts bills per status
func (s *BillingService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts, err := s.bills.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for status, n := range counts {
		out[status.String()] = n
	}
	return out, nil
}

func parseStatus(status string) (billing.BillStatus, error) {
	st, ok := billing.ParseBillStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !ok {
		return "", shared.NewDomainErrorf("INVALID_ARGUMENT", "Unknown bill status: %s", status).
			WithDetail("status", status)
	}
	return st, nil
}

func validateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return shared.NewDomainError("INVALID_ARGUMENT", "Both start and end dates are required")
	}
	if to.Before(from) {
		return shared.NewDomainError("INVALID_ARGUMENT", "End date must not be before start date")
	}
	return nil
}
