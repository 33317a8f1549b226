package criteria

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes criteria construction errors.
type ErrorCode string

const (
	// ErrCodeInvalidFilterValue indicates a value whose shape does not match its operator's family.
	ErrCodeInvalidFilterValue ErrorCode = "INVALID_FILTER_VALUE"

	// ErrCodeUnsupportedOperator indicates an operator outside the closed enumeration.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeUnknownField indicates a field (or join reference) not declared on a schema.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeUnknownRelation indicates a join alias not declared on a schema.
	ErrCodeUnknownRelation ErrorCode = "UNKNOWN_RELATION"

	// ErrCodeInvalidPagination indicates a negative skip or take.
	ErrCodeInvalidPagination ErrorCode = "INVALID_PAGINATION"

	// ErrCodeEmptyCursor indicates a cursor with zero fields.
	ErrCodeEmptyCursor ErrorCode = "EMPTY_CURSOR"

	// ErrCodeInvalidCursor indicates a non-seek cursor operator or a non-primitive cursor value.
	ErrCodeInvalidCursor ErrorCode = "INVALID_CURSOR"

	// ErrCodeInvalidJoin indicates a join criteria of the wrong variant or schema.
	ErrCodeInvalidJoin ErrorCode = "INVALID_JOIN"

	// ErrCodeInvalidOrder indicates an order direction outside ASC/DESC.
	ErrCodeInvalidOrder ErrorCode = "INVALID_ORDER"

	// ErrCodeInvalidSchema indicates a malformed schema descriptor.
	ErrCodeInvalidSchema ErrorCode = "INVALID_SCHEMA"
)

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrInvalidFilterValue  = &Error{Code: ErrCodeInvalidFilterValue}
	ErrUnsupportedOperator = &Error{Code: ErrCodeUnsupportedOperator}
	ErrUnknownField        = &Error{Code: ErrCodeUnknownField}
	ErrUnknownRelation     = &Error{Code: ErrCodeUnknownRelation}
	ErrInvalidPagination   = &Error{Code: ErrCodeInvalidPagination}
	ErrEmptyCursor         = &Error{Code: ErrCodeEmptyCursor}
	ErrInvalidCursor       = &Error{Code: ErrCodeInvalidCursor}
	ErrInvalidJoin         = &Error{Code: ErrCodeInvalidJoin}
	ErrInvalidOrder        = &Error{Code: ErrCodeInvalidOrder}
	ErrInvalidSchema       = &Error{Code: ErrCodeInvalidSchema}
)

// Error is a synchronous validation failure raised while building criteria.
//
// A failed operation never leaves partial state behind: the Filter is not
// created, or the Criteria keeps the state it had before the call.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Field names the offending field, relation alias or schema, if any.
	Field string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message == "":
		return string(e.Code)
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Is matches any *Error carrying the same Code, so callers can write
// errors.Is(err, criteria.ErrUnknownField).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a criteria error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, field, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	}
}

func unknownField(schema, field string) *Error {
	e := newError(ErrCodeUnknownField, field, "field %q is not declared on schema %q", field, schema)
	e.Details = map[string]string{"schema": schema}
	return e
}
