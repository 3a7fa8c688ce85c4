package client

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents non-retryable 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 408/429 throttling errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is the base error kind for any non-2xx CMS response or
// unclassified failure. Message is the only field shown to users.
type APIError struct {
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NetworkError indicates the connection could not be established or
// timed out. It carries no HTTP status.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s", e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NotFoundError signals a lookup that yielded no entity, including list
// lookups that came back empty where the caller expected at least one item.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// NotFound creates a NotFoundError with the given message.
func NotFound(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func asNetworkError(err error) (*NetworkError, bool) {
	var netErr *NetworkError
	ok := errors.As(err, &netErr)
	return netErr, ok
}

// retryableStatuses is the exact set of HTTP statuses worth another attempt.
var retryableStatuses = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// RetryableStatus reports whether the given HTTP status should be retried.
func RetryableStatus(status int) bool {
	return retryableStatuses[status]
}

// Retryable classifies an error for retry purposes: network errors and
// errors carrying a retryable status retry, other classified errors do not,
// and unclassified errors default to retryable.
func Retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 0 {
			return true
		}
		return RetryableStatus(apiErr.StatusCode)
	}
	if IsNotFound(err) {
		return false
	}
	return true
}

// Classify returns the error class for metrics and logging.
func Classify(err error) ErrorClass {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return ErrorClassNetwork
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 408 || apiErr.StatusCode == 429:
			return ErrorClassRateLimit
		case apiErr.StatusCode >= 500:
			return ErrorClassServer
		case apiErr.StatusCode >= 400:
			return ErrorClassClient
		}
	}
	return ErrorClassNetwork
}
