package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	// common errors
	ErrTenantMissing = errors.New("tenant is missing")

	// domain errors
	ErrDomainNotFound = errors.New("domain not found")
	ErrDomainExists   = errors.New("domain already registered")

	// test errors
	ErrTestNotFound          = errors.New("placement test not found")
	ErrScheduleEntryNotFound = errors.New("scheduled entry not found")
)

// Kind classifies every failure that crosses a component boundary.
// Orchestration code branches on kinds, never on transport status codes.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindInvalidTransition Kind = "invalid_transition"
	KindRateLimit         Kind = "rate_limit_exceeded"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindProviderTransport Kind = "provider_transport"
	KindProviderAuth      Kind = "provider_auth"
	KindNotImplemented    Kind = "not_implemented"
	KindNotFound          Kind = "not_found"
)

type Error struct {
	kind       Kind
	message    string
	retryAfter time.Duration
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Kind() Kind {
	return e.kind
}

// RetryAfter returns the wait hint attached to rate-limit errors, zero otherwise
func (e *Error) RetryAfter() time.Duration {
	return e.retryAfter
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{kind: KindValidation, message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(from, to string) *Error {
	return &Error{
		kind:    KindInvalidTransition,
		message: fmt.Sprintf("invalid domain status transition from %s to %s", from, to),
	}
}

func RateLimitExceeded(wait time.Duration) *Error {
	return &Error{
		kind:       KindRateLimit,
		message:    fmt.Sprintf("rate limit exceeded, retry in %s", wait.Round(time.Second)),
		retryAfter: wait,
	}
}

func QuotaExceeded(limit int) *Error {
	return &Error{
		kind:    KindQuotaExceeded,
		message: fmt.Sprintf("monthly test quota of %d exceeded", limit),
	}
}

func ProviderTransport(cause error, message string) *Error {
	return &Error{kind: KindProviderTransport, message: message, cause: cause}
}

func ProviderAuth(message string) *Error {
	return &Error{kind: KindProviderAuth, message: message}
}

func NotImplemented(capability string) *Error {
	return &Error{
		kind:    KindNotImplemented,
		message: fmt.Sprintf("%s is not implemented for this provider", capability),
	}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{kind: KindNotFound, message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from any error in the chain; unknown errors
// report as transport so unexpected failures stay retryable-safe upstream
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindProviderTransport
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}

// IsRetryable reports whether the retry executor may re-run the operation.
// Only provider transport failures qualify; policy and validation failures
// surface to the caller on first occurrence.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == KindProviderTransport
	}
	return false
}

// RetryAfterHint returns the wait hint when err is a rate-limit error
func RetryAfterHint(err error) (time.Duration, bool) {
	var e *Error
	if errors.As(err, &e) && e.kind == KindRateLimit {
		return e.retryAfter, true
	}
	return 0, false
}
