package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind is the caller-facing failure class. Callers branch on Kind, never on message text.
type Kind string

const (
	KindConfiguration       Kind = "configuration"
	KindUpstreamTimeout     Kind = "upstream_timeout"
	KindUpstreamResponse    Kind = "upstream_response"
	KindContractViolation   Kind = "contract_violation"
	KindUnsupportedProvider Kind = "unsupported_provider"
	KindInvalidRequest      Kind = "invalid_request"
	KindCanceled            Kind = "canceled"
	KindInternal            Kind = "internal"
)

// StatusClientClosedRequest is the non-standard status used when the caller went away.
const StatusClientClosedRequest = 499

type Error struct {
	Kind   Kind
	Status int
	Code   string
	// UpstreamStatus is the HTTP status returned by a provider, 0 when no response was received.
	UpstreamStatus int
	// Malformed marks a 2xx answer whose body could not be decoded. Resending the same
	// request is not expected to help.
	Malformed bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Status: StatusFor(kind), Code: code, Err: err}
}

func Configuration(code string, err error) *Error {
	return New(KindConfiguration, code, err)
}

func UpstreamTimeout(code string, err error) *Error {
	return New(KindUpstreamTimeout, code, err)
}

func UpstreamResponse(code string, upstreamStatus int, err error) *Error {
	e := New(KindUpstreamResponse, code, err)
	e.UpstreamStatus = upstreamStatus
	return e
}

// MalformedResponse is an upstream_response error for an undecodable success body.
// It is never retried.
func MalformedResponse(code string, err error) *Error {
	e := New(KindUpstreamResponse, code, err)
	e.Malformed = true
	return e
}

func ContractViolation(code string, err error) *Error {
	return New(KindContractViolation, code, err)
}

func UnsupportedProvider(provider string) *Error {
	return New(KindUnsupportedProvider, "unsupported_provider", fmt.Errorf("unsupported image provider %q", provider))
}

func InvalidRequest(code string, err error) *Error {
	return New(KindInvalidRequest, code, err)
}

func Internal(code string, err error) *Error {
	return New(KindInternal, code, err)
}

// Classify maps a transport-level failure to an *Error. Errors that already carry a Kind
// are returned unchanged.
func Classify(code string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return New(KindCanceled, code+"_canceled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return UpstreamTimeout(code+"_timeout", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return UpstreamTimeout(code+"_timeout", err)
	}
	return UpstreamResponse(code+"_transport", 0, err)
}

// FromHTTPStatus builds the error for a non-2xx provider response.
func FromHTTPStatus(code string, status int, body string) *Error {
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	err := fmt.Errorf("%s http %d: %s", code, status, body)
	switch status {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		e := UpstreamTimeout(fmt.Sprintf("%s_http_%d", code, status), err)
		e.UpstreamStatus = status
		return e
	case http.StatusUnauthorized, http.StatusForbidden:
		e := Configuration(fmt.Sprintf("%s_unauthorized", code), err)
		e.UpstreamStatus = status
		return e
	default:
		return UpstreamResponse(fmt.Sprintf("%s_http_%d", code, status), status, err)
	}
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUpstreamTimeout
	}
	return KindInternal
}

func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return string(KindOf(err))
}

// IsRetryable reports whether a bounded retry may help. Timeouts always qualify; upstream
// responses qualify when no status was received or the status is 408/409/429/5xx.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindUpstreamTimeout:
		return true
	case KindUpstreamResponse:
		if e.Malformed {
			return false
		}
		s := e.UpstreamStatus
		return s == 0 || s == http.StatusRequestTimeout || s == http.StatusConflict ||
			s == http.StatusTooManyRequests || s >= 500
	default:
		return false
	}
}

func StatusFor(kind Kind) int {
	switch kind {
	case KindConfiguration:
		return http.StatusServiceUnavailable
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamResponse, KindContractViolation:
		return http.StatusBadGateway
	case KindUnsupportedProvider, KindInvalidRequest:
		return http.StatusBadRequest
	case KindCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf returns the HTTP status a handler should answer with for err.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return StatusFor(KindOf(err))
}

// Remediation tells the caller what to do next: "retry", "check_configuration" or "fix_request".
func Remediation(kind Kind) string {
	switch kind {
	case KindUpstreamTimeout, KindUpstreamResponse, KindContractViolation, KindCanceled:
		return "retry"
	case KindConfiguration, KindInternal:
		return "check_configuration"
	case KindUnsupportedProvider, KindInvalidRequest:
		return "fix_request"
	default:
		return "retry"
	}
}
