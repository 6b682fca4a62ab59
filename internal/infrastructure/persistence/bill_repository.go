package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/bookshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// withLines preloads bill lines in line order
func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("line_no ASC")
	})
}

// FindByID finds a bill by ID with its lines
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := withLines(r.db.WithContext(ctx)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a bill by bill number
func (r *GormBillRepository) FindByNumber(ctx context.Context, billNumber string) (*billing.Bill, error) {
	var model models.BillModel
	if err := withLines(r.db.WithContext(ctx)).
		Where("bill_number = ?", strings.ToUpper(strings.TrimSpace(billNumber))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCustomer lists a customer's bills, newest first
func (r *GormBillRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Bill, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("customer_id = ?", customerID)
	})
}

// FindByStatus lists bills in a status, newest first
func (r *GormBillRepository) FindByStatus(ctx context.Context, status billing.BillStatus) ([]billing.Bill, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ?", status)
	})
}

// FindByDateRange lists bills dated within [from, to]. Dates are stored in
// UTC so text comparison on sqlite stays ordered.
func (r *GormBillRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]billing.Bill, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("bill_date >= ? AND bill_date <= ?", from.UTC(), to.UTC())
	})
}

// FindPendingBefore lists PENDING bills dated before cutoff
func (r *GormBillRepository) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]billing.Bill, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ? AND bill_date < ?", billing.BillStatusPending, cutoff.UTC())
	})
}

// FindContainingItem lists bills with at least one line for the item
func (r *GormBillRepository) FindContainingItem(ctx context.Context, itemID uuid.UUID) ([]billing.Bill, error) {
	return r.find(ctx, func(q *gorm.DB) *gorm.DB {
		sub := r.db.Model(&models.BillLineModel{}).Select("bill_id").Where("item_id = ?", itemID)
		return q.Where("id IN (?)", sub)
	})
}

func (r *GormBillRepository) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]billing.Bill, error) {
	var billModels []models.BillModel
	query := scope(withLines(r.db.WithContext(ctx)).Model(&models.BillModel{}))
	if err := query.Order("bill_date DESC, bill_number DESC").Find(&billModels).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainBills(billModels), nil
}

// Search returns one page of bills matching criteria and the total count
func (r *GormBillRepository) Search(ctx context.Context, criteria billing.SearchCriteria) ([]billing.Bill, int64, error) {
	filter := criteria.Filter.Normalize()

	base := r.applyCriteria(r.db.WithContext(ctx).Model(&models.BillModel{}), criteria)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	orderBy := ValidateSortField(filter.OrderBy, BillSortFields, "bill_date")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var billModels []models.BillModel
	if err := withLines(base.Session(&gorm.Session{})).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Order("bill_number " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&billModels).Error; err != nil {
		return nil, 0, translateError(err)
	}

	return toDomainBills(billModels), total, nil
}

func (r *GormBillRepository) applyCriteria(query *gorm.DB, criteria billing.SearchCriteria) *gorm.DB {
	if search := strings.TrimSpace(criteria.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(bill_number) LIKE ? OR LOWER(notes) LIKE ?", like, like)
	}
	if criteria.Status != nil {
		query = query.Where("status = ?", *criteria.Status)
	}
	if criteria.CustomerID != nil {
		query = query.Where("customer_id = ?", *criteria.CustomerID)
	}
	if criteria.From != nil {
		query = query.Where("bill_date >= ?", criteria.From.UTC())
	}
	if criteria.To != nil {
		query = query.Where("bill_date <= ?", criteria.To.UTC())
	}
	return query
}

type salesRow struct {
	Total decimal.Decimal
	Count int64
}

// SummarizeSales totals PAID and PARTIAL_PAID bills dated within [from, to]
func (r *GormBillRepository) SummarizeSales(ctx context.Context, from, to time.Time) (billing.SalesSummary, error) {
	var row salesRow
	if err := r.db.WithContext(ctx).Model(&models.BillModel{}).
		Select("COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Where("status IN ?", []billing.BillStatus{billing.BillStatusPaid, billing.BillStatusPartialPaid}).
		Where("bill_date >= ? AND bill_date <= ?", from.UTC(), to.UTC()).
		Scan(&row).Error; err != nil {
		return billing.SalesSummary{}, translateError(err)
	}

	summary := billing.SalesSummary{
		TotalSales:    valueobject.NewMoney(row.Total).Round2(),
		AverageAmount: valueobject.Zero(),
		BillCount:     row.Count,
	}
	if row.Count > 0 {
		summary.AverageAmount = valueobject.NewMoney(row.Total.Div(decimal.NewFromInt(row.Count))).Round2()
	}
	return summary, nil
}

type statusCountRow struct {
	Status billing.BillStatus
	Count  int64
}

// CountByStatus counts bills per status. Every status is present in the result.
func (r *GormBillRepository) CountByStatus(ctx context.Context) (map[billing.BillStatus]int64, error) {
	var rows []statusCountRow
	if err := r.db.WithContext(ctx).Model(&models.BillModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	counts := make(map[billing.BillStatus]int64, len(billing.AllStatuses()))
	for _, status := range billing.AllStatuses() {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Create inserts a new bill and its lines
func (r *GormBillRepository) Create(ctx context.Context, bill *billing.Bill) error {
	model := models.BillModelFromDomain(bill)
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Create(model).Error; err != nil {
			return err
		}
		return insertLines(tx, model.Lines)
	}))
}

// SaveWithLock updates the bill header only when the stored version is
// bill.Version-1, then replaces its lines.
func (r *GormBillRepository) SaveWithLock(ctx context.Context, bill *billing.Bill) error {
	model := models.BillModelFromDomain(bill)
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.BillModel{}).
			Where("id = ? AND version = ?", bill.ID, bill.Version-1).
			Updates(map[string]interface{}{
				"subtotal":        model.Subtotal,
				"tax_rate":        model.TaxRate,
				"tax_amount":      model.TaxAmount,
				"discount_amount": model.DiscountAmount,
				"total_amount":    model.TotalAmount,
				"status":          model.Status,
				"notes":           model.Notes,
				"paid_at":         model.PaidAt,
				"cancelled_at":    model.CancelledAt,
				"version":         model.Version,
				"updated_at":      model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Where("bill_id = ?", bill.ID).Delete(&models.BillLineModel{}).Error; err != nil {
			return err
		}
		return insertLines(tx, model.Lines)
	}))
}

func insertLines(tx *gorm.DB, lines []models.BillLineModel) error {
	if len(lines) == 0 {
		return nil
	}
	return tx.Create(&lines).Error
}

func toDomainBills(billModels []models.BillModel) []billing.Bill {
	bills := make([]billing.Bill, len(billModels))
	for i := range billModels {
		bills[i] = *billModels[i].ToDomain()
	}
	return bills
}

// Ensure GormBillRepository implements BillRepository
var _ billing.BillRepository = (*GormBillRepository)(nil)
