package event

import (
	"testing"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()

	registry.Register(handler, billing.EventTypeBillCreated, billing.EventTypeBillUpdated)

	assert.Len(t, registry.GetHandlers(billing.EventTypeBillCreated), 1)
	assert.Len(t, registry.GetHandlers(billing.EventTypeBillUpdated), 1)
	assert.Empty(t, registry.GetHandlers(billing.EventTypeBillPaid))
	assert.Equal(t, 1, registry.Len())
}

func TestHandlerRegistry_Register_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	specific := newTestHandler()
	wildcard := newTestHandler()

	registry.Register(specific, billing.EventTypeBillPaid)
	registry.Register(wildcard)

	handlers := registry.GetHandlers(billing.EventTypeBillPaid)
	assert.Len(t, handlers, 2)
	assert.Equal(t, specific, handlers[0], "type-specific handlers run first")

	assert.Len(t, registry.GetHandlers(billing.EventTypeBillCancelled), 1)
	assert.Equal(t, 2, registry.Len())
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	kept := newTestHandler()
	removed := newTestHandler()

	registry.Register(kept, billing.EventTypeBillCreated)
	registry.Register(removed, billing.EventTypeBillCreated, billing.EventTypeBillPaid)
	registry.Register(removed)

	registry.Unregister(removed)

	assert.Equal(t, 1, registry.Len())
	assert.Len(t, registry.GetHandlers(billing.EventTypeBillCreated), 1)
	assert.Empty(t, registry.GetHandlers(billing.EventTypeBillPaid))
}
