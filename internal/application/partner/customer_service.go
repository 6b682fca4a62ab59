package partner

import (
	"context"
	"errors"
	"strings"

	"github.com/bookshop/backend/internal/domain/partner"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService handles customer operations
type CustomerService struct {
	customers partner.CustomerRepository
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customers partner.CustomerRepository) *CustomerService {
	return &CustomerService{customers: customers}
}

// Create registers a customer. Account numbers are unique.
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	exists, err := s.customers.ExistsByAccountNumber(ctx, req.AccountNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Customer with account number %s already exists",
			strings.ToUpper(strings.TrimSpace(req.AccountNumber)))
	}

	customer, err := partner.NewCustomer(req.AccountNumber, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Address != "" || req.Phone != "" || req.Email != "" {
		if err := customer.SetContact(req.Address, req.Phone, req.Email); err != nil {
			return nil, err
		}
	}

	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("account_number", customer.AccountNumber),
	)
	response := ToCustomerResponse(customer)
	return &response, nil
}

// Get retrieves a customer by ID
func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", id.String())
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByAccountNumber retrieves a customer by account number
func (s *CustomerService) GetByAccountNumber(ctx context.Context, accountNumber string) (*CustomerResponse, error) {
	accountNumber = strings.ToUpper(strings.TrimSpace(accountNumber))
	if accountNumber == "" {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "Account number is required")
	}

	customer, err := s.customers.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, notFound(err, "account_number", accountNumber)
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// List returns a page of customers
func (s *CustomerService) List(ctx context.Context, f CustomerListFilter) (shared.Paginated[CustomerResponse], error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   strings.TrimSpace(f.Search),
	}.Normalize()

	customers, err := s.customers.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[CustomerResponse]{}, err
	}
	total, err := s.customers.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[CustomerResponse]{}, err
	}
	return shared.NewPaginated(ToCustomerResponses(customers), total, filter.Page, filter.PageSize), nil
}

// Update renames a customer or replaces contact details
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "id", id.String())
	}

	if req.Name != nil {
		if err := customer.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Address != nil || req.Phone != nil || req.Email != nil {
		address, phone, email := customer.Address, customer.Phone, customer.Email
		if req.Address != nil {
			address = *req.Address
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if req.Email != nil {
			email = *req.Email
		}
		if err := customer.SetContact(address, phone, email); err != nil {
			return nil, err
		}
	}

	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

func notFound(err error, field, value string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainErrorf("CUSTOMER_NOT_FOUND", "Customer not found: %s", value).WithDetail(field, value)
	}
	return err
}
