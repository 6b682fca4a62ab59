package billing

import (
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeBill = "Bill"

// Event type constants
const (
	EventTypeBillCreated   = "BillCreated"
	EventTypeBillUpdated   = "BillUpdated"
	EventTypeBillPaid      = "BillPaid"
	EventTypeBillCancelled = "BillCancelled"
)

// BillCreatedEvent is raised when a bill is created
type BillCreatedEvent struct {
	shared.BaseDomainEvent
	BillNumber    string            `json:"bill_number"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	TotalAmount   valueobject.Money `json:"total_amount"`
	LineCount     int               `json:"line_count"`
	TotalQuantity int               `json:"total_quantity"`
}

// NewBillCreatedEvent creates a new BillCreatedEvent
func NewBillCreatedEvent(b *Bill) *BillCreatedEvent {
	return &BillCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillCreated, AggregateTypeBill, b.ID),
		BillNumber:      b.BillNumber,
		CustomerID:      b.CustomerID,
		TotalAmount:     b.TotalAmount,
		LineCount:       b.ItemCount(),
		TotalQuantity:   b.TotalQuantity(),
	}
}

// BillUpdatedEvent is raised when a bill's lines are replaced
type BillUpdatedEvent struct {
	shared.BaseDomainEvent
	BillNumber  string            `json:"bill_number"`
	TotalAmount valueobject.Money `json:"total_amount"`
	LineCount   int               `json:"line_count"`
}

// NewBillUpdatedEvent creates a new BillUpdatedEvent
func NewBillUpdatedEvent(b *Bill) *BillUpdatedEvent {
	return &BillUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillUpdated, AggregateTypeBill, b.ID),
		BillNumber:      b.BillNumber,
		TotalAmount:     b.TotalAmount,
		LineCount:       b.ItemCount(),
	}
}

// BillPaidEvent is raised when a bill is settled
type BillPaidEvent struct {
	shared.BaseDomainEvent
	BillNumber  string            `json:"bill_number"`
	TotalAmount valueobject.Money `json:"total_amount"`
}

// NewBillPaidEvent creates a new BillPaidEvent
func NewBillPaidEvent(b *Bill) *BillPaidEvent {
	return &BillPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaid, AggregateTypeBill, b.ID),
		BillNumber:      b.BillNumber,
		TotalAmount:     b.TotalAmount,
	}
}

// BillCancelledEvent is raised when a bill is cancelled
type BillCancelledEvent struct {
	shared.BaseDomainEvent
	BillNumber       string `json:"bill_number"`
	ReleasedQuantity int    `json:"released_quantity"`
}

// NewBillCancelledEvent creates a new BillCancelledEvent
func NewBillCancelledEvent(b *Bill) *BillCancelledEvent {
	return &BillCancelledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeBillCancelled, AggregateTypeBill, b.ID),
		BillNumber:       b.BillNumber,
		ReleasedQuantity: b.TotalQuantity(),
	}
}
