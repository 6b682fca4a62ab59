package billing

import (
	"context"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/inventory"
	"github.com/bookshop/backend/internal/domain/partner"
)

// TransactionScope runs a unit of work in one database transaction.
// Everything done through the repositories handed to fn commits or rolls
// back together.
type TransactionScope interface {
	// Execute runs fn within a transaction. A non-nil error from fn rolls
	// the transaction back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories bound to the
// current transaction.
type TransactionalRepositories interface {
	// Bills returns the bill repository scoped to the transaction
	Bills() billing.BillRepository
	// Items returns the item repository scoped to the transaction
	Items() catalog.ItemRepository
	// Customers returns the customer repository scoped to the transaction
	Customers() partner.CustomerRepository
	// Numbers returns the bill number allocator scoped to the transaction
	Numbers() billing.BillNumberAllocator
	// Movements returns the stock journal scoped to the transaction
	Movements() inventory.MovementRepository
}

// NoOpTransactionScope runs fn against fixed repositories without a
// transaction. Used by unit tests with mocked repositories.
type NoOpTransactionScope struct {
	bills     billing.BillRepository
	items     catalog.ItemRepository
	customers partner.CustomerRepository
	numbers   billing.BillNumberAllocator
	movements inventory.MovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	bills billing.BillRepository,
	items catalog.ItemRepository,
	customers partner.CustomerRepository,
	numbers billing.BillNumberAllocator,
	movements inventory.MovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		bills:     bills,
		items:     items,
		customers: customers,
		numbers:   numbers,
		movements: movements,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Bills returns the bill repository.
func (s *NoOpTransactionScope) Bills() billing.BillRepository { return s.bills }

// Items returns the item repository.
func (s *NoOpTransactionScope) Items() catalog.ItemRepository { return s.items }

// Customers returns the customer repository.
func (s *NoOpTransactionScope) Customers() partner.CustomerRepository { return s.customers }

// Numbers returns the bill number allocator.
func (s *NoOpTransactionScope) Numbers() billing.BillNumberAllocator { return s.numbers }

// Movements returns the stock journal.
func (s *NoOpTransactionScope) Movements() inventory.MovementRepository { return s.movements }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
