package domain

import "errors"

// Allocation outcomes. All of these except ErrStorageUnavailable are expected,
// recoverable results that callers surface directly.
var (
	ErrShapeMismatch      = errors.New("assignment shape does not match venue type")
	ErrAlreadyAssigned    = errors.New("user already holds an assignment for this event")
	ErrSlotTaken          = errors.New("slot already taken")
	ErrCapacityExceeded   = errors.New("node capacity exceeded")
	ErrNodeNotFound       = errors.New("venue node not found")
	ErrEventMismatch      = errors.New("event mismatch")
	ErrCycleDetected      = errors.New("move would create a cycle")
	ErrCrossEventParent   = errors.New("parent belongs to a different event")
	ErrHasChildren        = errors.New("venue node has children")
	ErrHasLiveAssignments = errors.New("venue node has live assignments")
	ErrNotFound           = errors.New("not found")
	ErrTypeInUse          = errors.New("venue type is in use")
	ErrInvalidCapacity    = errors.New("capacity must be >= 0")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrStorageUnavailable marks backing-store failures. Callers may retry
	// these with backoff; the engine itself never does.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ErrTypeNotFound and ErrAssignmentNotFound match ErrNotFound with errors.Is.
var (
	ErrTypeNotFound       = wrapNotFound("venue type")
	ErrAssignmentNotFound = wrapNotFound("assignment")
)

type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what + " not found" }
func (e *notFoundError) Unwrap() error { return ErrNotFound }

func wrapNotFound(what string) error { return &notFoundError{what: what} }

// Kind is a stable, transport-friendly name for an error outcome.
type Kind string

const (
	KindNone               Kind = ""
	KindShapeMismatch      Kind = "SHAPE_MISMATCH"
	KindAlreadyAssigned    Kind = "ALREADY_ASSIGNED"
	KindSlotTaken          Kind = "SLOT_TAKEN"
	KindCapacityExceeded   Kind = "CAPACITY_EXCEEDED"
	KindNodeNotFound       Kind = "NODE_NOT_FOUND"
	KindEventMismatch      Kind = "EVENT_MISMATCH"
	KindCycleDetected      Kind = "CYCLE_DETECTED"
	KindCrossEventParent   Kind = "CROSS_EVENT_PARENT"
	KindHasChildren        Kind = "HAS_CHILDREN"
	KindHasLiveAssignments Kind = "HAS_LIVE_ASSIGNMENTS"
	KindNotFound           Kind = "NOT_FOUND"
	KindTypeInUse          Kind = "TYPE_IN_USE"
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
)

var kindTable = []struct {
	err  error
	kind Kind
}{
	{ErrShapeMismatch, KindShapeMismatch},
	{ErrAlreadyAssigned, KindAlreadyAssigned},
	{ErrSlotTaken, KindSlotTaken},
	{ErrCapacityExceeded, KindCapacityExceeded},
	{ErrNodeNotFound, KindNodeNotFound},
	{ErrEventMismatch, KindEventMismatch},
	{ErrCycleDetected, KindCycleDetected},
	{ErrCrossEventParent, KindCrossEventParent},
	{ErrHasChildren, KindHasChildren},
	{ErrHasLiveAssignments, KindHasLiveAssignments},
	{ErrTypeInUse, KindTypeInUse},
	{ErrInvalidCapacity, KindInvalidInput},
	{ErrInvalidInput, KindInvalidInput},
	{ErrNotFound, KindNotFound},
	{ErrStorageUnavailable, KindStorageUnavailable},
}

// KindOf classifies err. Errors that match none of the known sentinels are
// reported as KindStorageUnavailable.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindStorageUnavailable
}

// IsDomainError reports whether err is one of the expected outcome kinds
// rather than an infrastructure failure.
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	for _, entry := range kindTable {
		if entry.err == ErrStorageUnavailable {
			continue
		}
		if errors.Is(err, entry.err) {
			return true
		}
	}
	return false
}

// IsUnavailableToUser reports outcomes a registrant should see as
// "this seat is unavailable, choose another".
func IsUnavailableToUser(err error) bool {
	return errors.Is(err, ErrAlreadyAssigned) ||
		errors.Is(err, ErrSlotTaken) ||
		errors.Is(err, ErrCapacityExceeded)
}

// IsConfigurationError reports outcomes caused by venue setup rather than by
// the registrant, which are surfaced to administrators.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrEventMismatch)
}
