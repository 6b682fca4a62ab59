package partner

import (
	"regexp"
	"strings"

	"github.com/bookshop/backend/internal/domain/shared"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Customer is a bookshop account holder. Bills reference customers by ID.
type Customer struct {
	shared.BaseAggregateRoot
	AccountNumber string
	Name          string
	Address       string
	Phone         string
	Email         string
}

// NewCustomer creates a new customer with required fields
func NewCustomer(accountNumber, name string) (*Customer, error) {
	if err := validateAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountNumber:     strings.ToUpper(strings.TrimSpace(accountNumber)),
		Name:              strings.TrimSpace(name),
	}, nil
}

// SetContact replaces the contact information
func (c *Customer) SetContact(address, phone, email string) error {
	email = strings.TrimSpace(email)
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_ARGUMENT", "Phone cannot exceed 50 characters")
	}

	c.Address = strings.TrimSpace(address)
	c.Phone = strings.TrimSpace(phone)
	c.Email = email
	c.MarkModified()
	return nil
}

// Rename changes the customer's display name
func (c *Customer) Rename(name string) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(name)
	c.MarkModified()
	return nil
}

func validateAccountNumber(accountNumber string) error {
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" {
		return shared.NewDomainError("INVALID_ARGUMENT", "Account number cannot be empty")
	}
	if len(accountNumber) > 50 {
		return shared.NewDomainError("INVALID_ARGUMENT", "Account number cannot exceed 50 characters")
	}
	return nil
}

func validateCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_ARGUMENT", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_ARGUMENT", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_ARGUMENT", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_ARGUMENT", "Invalid email format")
	}
	return nil
}
