// Package billing contains the bill aggregate and the rules around it.
//
// A Bill owns its lines. Money fields are never assigned directly: every
// mutation ends in Recalculate, which runs the pricing calculator over the
// current lines. Status changes follow the transition table in
// bill_status.go, and stock effects are left to the caller, which must pair
// them with the same transaction that persists the bill.
package billing
