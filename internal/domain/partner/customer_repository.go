package partner

import (
	"context"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by ID, returning shared.ErrNotFound when missing
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByAccountNumber finds a customer by its unique account number
	FindByAccountNumber(ctx context.Context, accountNumber string) (*Customer, error)

	// FindAll finds all customers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, error)

	// Count counts customers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByAccountNumber checks if an account number is taken
	ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error
}
