package export

import "fmt"

// Reason classifies an export failure.
type Reason string

const (
	ReasonExtractionFailed Reason = "extraction-failed"
	ReasonConversionFailed Reason = "conversion-failed"
	ReasonUnknown          Reason = "unknown"
)

// Error is returned by Export. It wraps the underlying cause.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export failed (%s): %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
