package models

import (
	"github.com/bookshop/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	AggregateModel
	AccountNumber string `gorm:"type:varchar(50);not null;uniqueIndex:idx_customers_account_number"`
	Name          string `gorm:"type:varchar(200);not null;index"`
	Address       string `gorm:"type:text"`
	Phone         string `gorm:"type:varchar(50)"`
	Email         string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.root(),
		AccountNumber:     m.AccountNumber,
		Name:              m.Name,
		Address:           m.Address,
		Phone:             m.Phone,
		Email:             m.Email,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.setRoot(c.BaseAggregateRoot)
	m.AccountNumber = c.AccountNumber
	m.Name = c.Name
	m.Address = c.Address
	m.Phone = c.Phone
	m.Email = c.Email
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
