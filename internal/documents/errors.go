package documents

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid document input")
)

// Processing failure kinds, used by HTTP handlers to map errors to
// status codes and error payloads.
const (
	KindExtractionFailed  = "extraction_failed"
	KindStructuredFailed  = "structured_extraction_failed"
	KindSupplierNotFound  = "supplier_not_found"
	KindInvalidTransition = "invalid_transition"
	KindValidationError   = "validation_error"
)

// ReasonNoTextExtracted tags extraction failures where no strategy
// produced readable text, matching the machine-readable reason tags the
// structured extractor uses.
const ReasonNoTextExtracted = "no_text_extracted"

// ProcessError describes why processing a document did not produce an
// invoice. The document stays pending for every kind except
// invalid_transition, which means another request already settled it.
type ProcessError struct {
	Kind          string
	Reason        string
	MissingFields []string
	Suggestion    string
	Err           error
}

func (e *ProcessError) Error() string {
	msg := e.Kind
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.MissingFields) > 0 {
		msg = fmt.Sprintf("%s (missing: %s)", msg, strings.Join(e.MissingFields, ", "))
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }
