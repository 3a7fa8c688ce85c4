package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestRetryableStatus(t *testing.T) {
	for _, status := range []int{408, 429, 500, 502, 503, 504} {
		if !RetryableStatus(status) {
			t.Errorf("RetryableStatus(%d) = false, want true", status)
		}
	}
	for _, status := range []int{200, 304, 400, 401, 403, 404, 418, 501} {
		if RetryableStatus(status) {
			t.Errorf("RetryableStatus(%d) = true, want false", status)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network error", &NetworkError{Message: "down"}, true},
		{"api 500", &APIError{StatusCode: 500}, true},
		{"api 429", &APIError{StatusCode: 429}, true},
		{"api 404", &APIError{StatusCode: 404}, false},
		{"api 400", &APIError{StatusCode: 400}, false},
		{"api no status", &APIError{Message: "unknown"}, true},
		{"not found", NotFound("gone"), false},
		{"unclassified", errors.New("mystery"), true},
		{"wrapped api 503", fmt.Errorf("outer: %w", &APIError{StatusCode: 503}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"network", &NetworkError{}, ErrorClassNetwork},
		{"timeout status", &APIError{StatusCode: 408}, ErrorClassRateLimit},
		{"rate limit", &APIError{StatusCode: 429}, ErrorClassRateLimit},
		{"server", &APIError{StatusCode: 502}, ErrorClassServer},
		{"client", &APIError{StatusCode: 403}, ErrorClassClient},
		{"unknown", errors.New("mystery"), ErrorClassNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &APIError{Message: "failed", StatusCode: 500, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var apiErr *APIError
	if !errors.As(fmt.Errorf("outer: %w", err), &apiErr) {
		t.Error("errors.As should find the APIError through wrapping")
	}
	if apiErr.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NotFound("missing")) {
		t.Error("IsNotFound(NotFound(...)) = false")
	}
	if !IsNotFound(fmt.Errorf("wrapped: %w", NotFound("missing"))) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsNotFound(&APIError{StatusCode: 404}) {
		t.Error("a 404 APIError is not a NotFoundError")
	}
	if got := NotFound("Category collection not found").Error(); got != "Category collection not found" {
		t.Errorf("Error() = %q", got)
	}
}
