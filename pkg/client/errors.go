package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the normalized failure taxonomy shared by every data source.
type ErrorKind string

const (
	// KindInvalidURL means the request could not be constructed.
	KindInvalidURL ErrorKind = "invalid_url"

	// KindTransport is a connection-level fault (DNS, timeout, reset).
	KindTransport ErrorKind = "transport"

	// KindInvalidResponse is a non-2xx HTTP status.
	KindInvalidResponse ErrorKind = "invalid_response"

	// KindDecoding means the payload did not match the expected schema.
	KindDecoding ErrorKind = "decoding"

	// KindPersistenceRead is a local store read fault.
	KindPersistenceRead ErrorKind = "persistence_read"

	// KindPersistenceWrite is a local store write fault.
	KindPersistenceWrite ErrorKind = "persistence_write"

	// KindFixtureNotFound means the named bundled fixture does not exist.
	KindFixtureNotFound ErrorKind = "fixture_not_found"

	// KindFixtureDecoding means the bundled fixture could not be decoded.
	KindFixtureDecoding ErrorKind = "fixture_decoding"

	// KindUnknown wraps anything outside the taxonomy.
	KindUnknown ErrorKind = "unknown"
)

// ErrorClass refines KindInvalidResponse for user messaging.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors not covered below.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassUnauthorized represents 401.
	ErrorClassUnauthorized ErrorClass = "unauthorized"

	// ErrorClassNotFound represents 404.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassRateLimit represents 429.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Error is the single error type surfaced by the fetch pipeline, the local
// store, and the fixture loader.
type Error struct {
	Kind       ErrorKind
	Class      ErrorClass
	StatusCode int
	// Name is the fixture name for fixture errors.
	Name   string
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	switch e.Kind {
	case KindInvalidResponse:
		msg = fmt.Sprintf("invalid response (status %d, %s)", e.StatusCode, e.Class)
	case KindFixtureNotFound, KindFixtureDecoding:
		msg = fmt.Sprintf("%s %q", e.Kind, e.Name)
	}

	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil && e.Err.Error() != e.Detail {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so callers can write
// errors.Is(err, &client.Error{Kind: client.KindDecoding}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.StatusCode == 0 || t.StatusCode == e.StatusCode)
}

// Retryable reports whether re-issuing the same request can succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransport:
		return true
	case KindInvalidResponse:
		return e.Class == ErrorClassServer || e.Class == ErrorClassRateLimit
	default:
		return false
	}
}

// NewError builds an *Error of the given kind wrapping err.
func NewError(kind ErrorKind, err error) *Error {
	e := &Error{Kind: kind, Err: err}
	if kind == KindTransport {
		e.Class = ErrorClassNetwork
	}
	return e
}

// FixtureNotFound reports a missing bundled fixture.
func FixtureNotFound(name string, err error) *Error {
	return &Error{Kind: KindFixtureNotFound, Name: name, Err: err}
}

// FixtureDecodingError reports a bundled fixture that failed to decode.
func FixtureDecodingError(name string, err error) *Error {
	return &Error{Kind: KindFixtureDecoding, Name: name, Detail: err.Error(), Err: err}
}

// KindOf returns the taxonomy kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsNetwork reports whether err should be presented as a network issue.
func IsNetwork(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindTransport || e.Kind == KindInvalidResponse
}

// Normalize returns err as an *Error, wrapping foreign errors as KindUnknown.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUnknown, Detail: err.Error(), Err: err}
}

// ValidateStatus checks a status code against the 200–299 success range.
func ValidateStatus(statusCode int) error {
	if statusCode >= 200 && statusCode <= 299 {
		return nil
	}
	return &Error{
		Kind:       KindInvalidResponse,
		Class:      classifyStatus(statusCode),
		StatusCode: statusCode,
		Detail:     http.StatusText(statusCode),
	}
}

// classifyStatus categorizes a failed status code for observability and messaging.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusUnauthorized:
		return ErrorClassUnauthorized
	case statusCode == http.StatusNotFound:
		return ErrorClassNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 500 && statusCode <= 599:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}
