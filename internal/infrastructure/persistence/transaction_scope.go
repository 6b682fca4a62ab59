package persistence

import (
	"context"
	"fmt"
	"time"

	appbilling "github.com/bookshop/backend/internal/application/billing"
	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/inventory"
	"github.com/bookshop/backend/internal/domain/partner"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope. On PostgreSQL a
// positive lockTimeout bounds how long a statement waits for a row lock
// before failing with a retryable error.
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs fn within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateError(err)
}

// ExecuteStock runs fn with the item and stock journal repositories of one
// transaction. It satisfies the catalog service's unit of work.
func (s *GormTransactionScope) ExecuteStock(ctx context.Context, fn func(items catalog.ItemRepository, movements inventory.MovementRepository) error) error {
	return s.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		return fn(repos.Items(), repos.Movements())
	})
}

// gormTransactionalRepositories builds repositories on the active transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Bills() billing.BillRepository {
	return NewGormBillRepository(r.tx)
}

func (r *gormTransactionalRepositories) Items() catalog.ItemRepository {
	return NewGormItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormTransactionalRepositories) Numbers() billing.BillNumberAllocator {
	return NewGormBillNumberAllocator(r.tx)
}

func (r *gormTransactionalRepositories) Movements() inventory.MovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

var (
	_ appbilling.TransactionScope          = (*GormTransactionScope)(nil)
	_ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
