package contract

import (
	"errors"

	"github.com/alexanderramin/venuealloc/internal/domain"
)

// AllocationError is the transport form of an engine failure.
type AllocationError struct {
	Code    domain.Kind `json:"code"`
	Message string      `json:"message"`
}

func (e *AllocationError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewAllocationError classifies err. It returns nil for a nil error and
// passes an existing *AllocationError through unchanged.
func NewAllocationError(err error) *AllocationError {
	if err == nil {
		return nil
	}
	var ae *AllocationError
	if errors.As(err, &ae) {
		return ae
	}
	return &AllocationError{Code: domain.KindOf(err), Message: err.Error()}
}
