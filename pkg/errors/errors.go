package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies a failure. Every code maps to one HTTP status.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Checkout failures. Processor and persistence errors share the buyer
	// facing message and carry the fallback contact link in details.
	CodeProcessor      Code = "PROCESSOR_ERROR"
	CodePersistence    Code = "PERSISTENCE_ERROR"
	CodeReconciliation Code = "RECONCILIATION_REQUIRED"
	CodeUpstream       Code = "UPSTREAM_ERROR"
)

const PaymentFailedMessage = "payment could not be completed, try the alternate contact channel"

// Metadata is how a code is rendered on the wire.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, retryable bool, message string, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: retryable, PublicMessage: message, DetailsAllowed: details}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:     meta(http.StatusBadRequest, false, "validation failed", true),
	CodeUnauthorized:   meta(http.StatusUnauthorized, false, "authentication required", false),
	CodeForbidden:      meta(http.StatusForbidden, false, "access denied", false),
	CodeNotFound:       meta(http.StatusNotFound, false, "resource not found", false),
	CodeConflict:       meta(http.StatusConflict, false, "conflict detected", false),
	CodeStateConflict:  meta(http.StatusUnprocessableEntity, false, "state transition disallowed", true),
	CodeIdempotency:    meta(http.StatusConflict, false, "idempotency key reused", true),
	CodeRateLimit:      meta(http.StatusTooManyRequests, false, "rate limit exceeded", false),
	CodeInternal:       meta(http.StatusInternalServerError, true, "internal server error", false),
	CodeDependency:     meta(http.StatusServiceUnavailable, true, "dependency unavailable", true),
	CodeProcessor:      meta(http.StatusBadGateway, true, PaymentFailedMessage, true),
	CodePersistence:    meta(http.StatusServiceUnavailable, true, PaymentFailedMessage, true),
	CodeReconciliation: meta(http.StatusConflict, false, "payment requires manual reconciliation", true),
	CodeUpstream:       meta(http.StatusBadGateway, true, "upstream service rejected the request", true),
}

// MetadataFor returns the rendering of code. Unknown codes render as
// internal errors.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded failure with an optional cause and client-safe details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Errorf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

// Error omits the cause. Dump renders the full chain for logs.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error with the same code, so a bare New(code, "")
// works as a sentinel for errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if e == nil || !stdErrors.As(target, &other) || other == nil {
		return false
	}
	return e.code == other.code
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost *Error in err's chain has code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// HTTPStatus returns the status err renders as. Untyped errors are 500s.
func HTTPStatus(err error) int {
	return MetadataFor(As(err).Code()).HTTPStatus
}

// Retryable reports whether a client may retry the failed request.
func Retryable(err error) bool {
	return MetadataFor(As(err).Code()).Retryable
}
