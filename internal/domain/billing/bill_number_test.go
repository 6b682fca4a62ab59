package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBillNumber(t *testing.T) {
	assert.Equal(t, "BILL000001", FormatBillNumber(1))
	assert.Equal(t, "BILL000042", FormatBillNumber(42))
	assert.Equal(t, "BILL999999", FormatBillNumber(999999))
	assert.Equal(t, "BILL1000000", FormatBillNumber(1000000))
}

func TestParseBillNumber(t *testing.T) {
	seq, err := ParseBillNumber("BILL000123")
	require.NoError(t, err)
	assert.Equal(t, int64(123), seq)

	seq, err = ParseBillNumber(FormatBillNumber(1234567))
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), seq)

	for _, bad := range []string{"", "INV000001", "BILL12", "BILLabcdef", "BILL000000"} {
		_, err := ParseBillNumber(bad)
		assert.Error(t, err, bad)
	}
}
