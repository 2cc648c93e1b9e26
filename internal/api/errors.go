package api

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means no response reached us at all: connection failure, DNS
// error, or a per-attempt timeout. Status is always 0.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is an HTTP 401. The client clears the session token before
// returning it, so callers must re-login.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (HTTP 401): %s", e.Message)
}

// ClientError covers caller-correctable 4xx responses other than 401.
type ClientError struct {
	Status  int
	Message string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("request failed (HTTP %d): %s", e.Status, e.Message)
}

// ServerError covers 5xx responses. Retried up to the policy limit.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Message)
}

// clientErrorMessage returns the generic user-facing message for a 4xx status
// when the server did not provide one.
func clientErrorMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request, please check your input"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusTooManyRequests:
		return "too many requests, please slow down"
	default:
		return http.StatusText(status)
	}
}

// StatusOf returns the HTTP status carried by a classified error, with 0 for
// network-level failures and unclassified errors.
func StatusOf(err error) int {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Status
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Status
	}
	return 0
}

// retryable reports whether an attempt that produced err should be repeated.
// Network failures and 5xx qualify. 4xx never does, with one exception: 408
// means the server itself timed the request out, which is as transient as a
// network timeout.
func retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Status == http.StatusRequestTimeout
	}
	return false
}
