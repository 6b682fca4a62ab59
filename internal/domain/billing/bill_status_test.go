package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBillStatus_Helpers(t *testing.T) {
	tests := []struct {
		status          BillStatus
		final           bool
		modifiable      bool
		requiresPayment bool
	}{
		{BillStatusDraft, false, true, false},
		{BillStatusPending, false, true, true},
		{BillStatusPartialPaid, false, false, true},
		{BillStatusOverdue, false, false, true},
		{BillStatusPaid, true, false, false},
		{BillStatusCancelled, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.final, tt.status.IsFinal())
			assert.Equal(t, tt.modifiable, tt.status.IsModifiable())
			assert.Equal(t, tt.requiresPayment, tt.status.RequiresPayment())
		})
	}
}

func TestBillStatus_TerminalStatesHaveNoTransitions(t *testing.T) {
	for _, from := range []BillStatus{BillStatusPaid, BillStatusCancelled} {
		for _, to := range AllStatuses() {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestBillStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, BillStatusDraft.CanTransitionTo(BillStatusPending))
	assert.True(t, BillStatusPending.CanTransitionTo(BillStatusPaid))
	assert.True(t, BillStatusPending.CanTransitionTo(BillStatusOverdue))
	assert.True(t, BillStatusOverdue.CanTransitionTo(BillStatusCancelled))
	assert.True(t, BillStatusPartialPaid.CanTransitionTo(BillStatusPaid))
	assert.False(t, BillStatusPending.CanTransitionTo(BillStatusDraft))
	assert.False(t, BillStatusPending.CanTransitionTo(BillStatusPending))
}

func TestParseBillStatus(t *testing.T) {
	st, ok := ParseBillStatus("PAID")
	assert.True(t, ok)
	assert.Equal(t, BillStatusPaid, st)

	_, ok = ParseBillStatus("paid")
	assert.False(t, ok)

	assert.Less(t, BillStatusPending.Rank(), BillStatusPaid.Rank())
	assert.Equal(t, -1, BillStatus("NOPE").Rank())
}
