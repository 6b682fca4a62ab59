package billing

// BillStatus represents the lifecycle state of a bill
type BillStatus string

const (
	BillStatusDraft       BillStatus = "DRAFT"
	BillStatusPending     BillStatus = "PENDING"
	BillStatusPartialPaid BillStatus = "PARTIAL_PAID"
	BillStatusOverdue     BillStatus = "OVERDUE"
	BillStatusPaid        BillStatus = "PAID"
	BillStatusCancelled   BillStatus = "CANCELLED"
)

// AllStatuses lists statuses in lifecycle order
func AllStatuses() []BillStatus {
	return []BillStatus{
		BillStatusDraft,
		BillStatusPending,
		BillStatusPartialPaid,
		BillStatusOverdue,
		BillStatusPaid,
		BillStatusCancelled,
	}
}

// IsValid checks if the status is a valid bill status
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusDraft, BillStatusPending, BillStatusPartialPaid,
		BillStatusOverdue, BillStatusPaid, BillStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s BillStatus) String() string {
	return string(s)
}

// IsFinal reports whether no further transition is allowed
func (s BillStatus) IsFinal() bool {
	return s == BillStatusPaid || s == BillStatusCancelled
}

// IsModifiable reports whether lines, discount and notes may change
func (s BillStatus) IsModifiable() bool {
	return s == BillStatusDraft || s == BillStatusPending
}

// RequiresPayment reports whether money is still owed on the bill
func (s BillStatus) RequiresPayment() bool {
	return s == BillStatusPending || s == BillStatusPartialPaid || s == BillStatusOverdue
}

// Rank orders statuses along the lifecycle; terminal states rank highest.
func (s BillStatus) Rank() int {
	for i, st := range AllStatuses() {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo checks if the status can transition to the target status
func (s BillStatus) CanTransitionTo(target BillStatus) bool {
	switch s {
	case BillStatusDraft:
		return target == BillStatusPending || target == BillStatusPaid || target == BillStatusCancelled
	case BillStatusPending:
		return target == BillStatusPartialPaid || target == BillStatusOverdue ||
			target == BillStatusPaid || target == BillStatusCancelled
	case BillStatusPartialPaid:
		return target == BillStatusOverdue || target == BillStatusPaid || target == BillStatusCancelled
	case BillStatusOverdue:
		return target == BillStatusPartialPaid || target == BillStatusPaid || target == BillStatusCancelled
	}
	return false
}

// ParseBillStatus converts s into a BillStatus, reporting whether it is known
func ParseBillStatus(s string) (BillStatus, bool) {
	st := BillStatus(s)
	return st, st.IsValid()
}
