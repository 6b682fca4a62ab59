package printing

import "fmt"

// Render failure codes
const (
	ErrCodeRenderFailed = "RENDER_FAILED"
	ErrCodeEmptyBill    = "EMPTY_BILL"
)

// RenderError reports which bill could not be laid out and why
type RenderError struct {
	Code       string
	BillNumber string
	Message    string
	Cause      error
}

func (e *RenderError) Error() string {
	msg := e.Message
	if e.BillNumber != "" {
		msg = fmt.Sprintf("%s %s", e.BillNumber, e.Message)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *RenderError) Unwrap() error { return e.Cause }

func renderError(code, billNumber, message string, cause error) *RenderError {
	return &RenderError{Code: code, BillNumber: billNumber, Message: message, Cause: cause}
}
