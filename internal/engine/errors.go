package engine

import (
	"errors"
	"fmt"

	"github.com/CoMatu/test-gql-server/internal/store"
)

// Error is a failure reported by the engine.
//
// Not-found conditions on mutations are not errors: they come back as
// error payloads. Error is reserved for conditions the caller must act on,
// and for point lookups where absence is the whole answer.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity names the affected collection or entity, when there is one.
	Entity string

	// ID identifies the affected record, when there is one.
	ID string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates no live record has the requested id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodePersistence indicates a durable write failed after the
	// in-memory state changed. Memory and storage may now disagree; the
	// process should reload from storage.
	ErrCodePersistence ErrorCode = "PERSISTENCE_FAILURE"

	// ErrCodeMalformedData indicates a stored record is structurally
	// unusable (e.g. it has no string id).
	ErrCodeMalformedData ErrorCode = "MALFORMED_STORED_DATA"

	// ErrCodeUnknownEnum indicates a stored discriminant outside the
	// schema's enumeration. It is logged, never returned to readers.
	ErrCodeUnknownEnum ErrorCode = "UNKNOWN_ENUM_VALUE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Entity != "" && e.ID != "" {
		msg = fmt.Sprintf("%s (entity=%s, id=%s)", msg, e.Entity, e.ID)
	} else if e.Entity != "" {
		msg = fmt.Sprintf("%s (entity=%s)", msg, e.Entity)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a not-found error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeNotFound
	}
	return false
}

// IsPersistence reports whether err is a persistence failure, either an
// engine Error or a bare store.ErrPersistence.
func IsPersistence(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodePersistence {
		return true
	}
	return errors.Is(err, store.ErrPersistence)
}

// NewNotFoundError creates an Error for a missing record.
func NewNotFoundError(entity, id string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "no live record with this id",
		Entity:  entity,
		ID:      id,
	}
}

// NewPersistenceError wraps a failed durable write.
func NewPersistenceError(entity, id string, err error) *Error {
	return &Error{
		Code:    ErrCodePersistence,
		Message: "durable write failed, in-memory state may be ahead of storage",
		Entity:  entity,
		ID:      id,
		Err:     err,
	}
}

// NewMalformedDataError reports an unusable stored record.
func NewMalformedDataError(collection string, index int, reason string) *Error {
	return &Error{
		Code:    ErrCodeMalformedData,
		Message: fmt.Sprintf("record %d: %s", index, reason),
		Entity:  collection,
	}
}

// NewUnknownEnumError reports a discriminant outside its enumeration.
func NewUnknownEnumError(enum, value string) *Error {
	return &Error{
		Code:    ErrCodeUnknownEnum,
		Message: fmt.Sprintf("%q is not a %s value, using default", value, enum),
		Entity:  enum,
	}
}
