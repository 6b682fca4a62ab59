package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// BillNumberPrefix prefixes every issued bill number
const BillNumberPrefix = "BILL"

// FormatBillNumber renders a sequence value as BILL + six zero-padded digits.
func FormatBillNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", BillNumberPrefix, seq)
}

// ParseBillNumber extracts the sequence value from a bill number.
func ParseBillNumber(number string) (int64, error) {
	if !strings.HasPrefix(number, BillNumberPrefix) {
		return 0, fmt.Errorf("bill number %q does not start with %s", number, BillNumberPrefix)
	}
	digits := strings.TrimPrefix(number, BillNumberPrefix)
	if len(digits) < 6 {
		return 0, fmt.Errorf("bill number %q has fewer than 6 digits", number)
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("bill number %q has an invalid sequence", number)
	}
	return seq, nil
}

// BillNumberAllocator mints bill numbers. Next must be called inside the
// transaction that persists the bill. A number is never handed out twice,
// including after the bill that used it is cancelled.
type BillNumberAllocator interface {
	Next(ctx context.Context) (string, error)
}
