package extraction

import (
	"fmt"
	"strings"
)

// Failure reasons. A service_unavailable failure may succeed on a later
// attempt; malformed_response and missing_fields will not, so callers
// should route those to manual entry instead of retrying.
const (
	ReasonServiceUnavailable = "service_unavailable"
	ReasonMalformedResponse  = "malformed_response"
	ReasonMissingFields      = "missing_fields"
)

// Failure is a typed extraction failure.
type Failure struct {
	Reason        string
	MissingFields []string
	Err           error
}

func (f *Failure) Error() string {
	if len(f.MissingFields) > 0 {
		return fmt.Sprintf("invoice extraction failed: %s: %s", f.Reason, strings.Join(f.MissingFields, ", "))
	}
	if f.Err != nil {
		return fmt.Sprintf("invoice extraction failed: %s: %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("invoice extraction failed: %s", f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }
