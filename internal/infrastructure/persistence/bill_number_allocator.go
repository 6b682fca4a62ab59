package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// billSequenceName names the counter row in bill_sequences
const billSequenceName = "bill"

// GormBillNumberAllocator issues bill numbers from a counter row. The
// increment takes a row lock that is held until the enclosing transaction
// ends, so two concurrent bills never see the same value.
type GormBillNumberAllocator struct {
	db *gorm.DB
}

// NewGormBillNumberAllocator creates an allocator bound to db, which should be
// the transaction that persists the bill.
func NewGormBillNumberAllocator(db *gorm.DB) *GormBillNumberAllocator {
	return &GormBillNumberAllocator{db: db}
}

// Next returns the next bill number
func (a *GormBillNumberAllocator) Next(ctx context.Context) (string, error) {
	db := a.db.WithContext(ctx)

	seq, ok, err := a.increment(db)
	if err != nil {
		return "", translateError(err)
	}
	if !ok {
		if err := a.seed(db); err != nil {
			return "", translateError(err)
		}
		seq, ok, err = a.increment(db)
		if err != nil {
			return "", translateError(err)
		}
		if !ok {
			return "", fmt.Errorf("bill sequence %q missing after seed", billSequenceName)
		}
	}
	return billing.FormatBillNumber(seq), nil
}

func (a *GormBillNumberAllocator) increment(db *gorm.DB) (int64, bool, error) {
	result := db.Model(&models.BillSequenceModel{}).
		Where("name = ?", billSequenceName).
		Updates(map[string]interface{}{
			"value":      gorm.Expr("value + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, false, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}

	var seq models.BillSequenceModel
	if err := db.Where("name = ?", billSequenceName).First(&seq).Error; err != nil {
		return 0, false, err
	}
	return seq.Value, true, nil
}

// seed creates the counter row starting at the highest bill number already
// stored, so an existing bills table keeps its sequence.
func (a *GormBillNumberAllocator) seed(db *gorm.DB) error {
	var numbers []string
	if err := db.Model(&models.BillModel{}).
		Order("LENGTH(bill_number) DESC, bill_number DESC").
		Limit(1).
		Pluck("bill_number", &numbers).Error; err != nil {
		return err
	}

	var start int64
	if len(numbers) > 0 {
		if seq, err := billing.ParseBillNumber(numbers[0]); err == nil {
			start = seq
		}
	}

	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.BillSequenceModel{
		Name:      billSequenceName,
		Value:     start,
		UpdatedAt: time.Now(),
	}).Error
}

// Ensure GormBillNumberAllocator implements BillNumberAllocator
var _ billing.BillNumberAllocator = (*GormBillNumberAllocator)(nil)
