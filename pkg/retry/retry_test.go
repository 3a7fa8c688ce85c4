package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastOpts keeps test backoff delays small.
func fastOpts(extra ...Option) []Option {
	opts := []Option{
		WithInitialDelay(1 * time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
	}
	return append(opts, extra...)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialDelay != 1*time.Second {
		t.Errorf("InitialDelay = %v, want 1s", config.InitialDelay)
	}
	if config.MaxDelay != 10*time.Second {
		t.Errorf("MaxDelay = %v, want 10s", config.MaxDelay)
	}
	if config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", config.Multiplier)
	}
}

func TestDo_Success(t *testing.T) {
	callCount := 0
	result, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		callCount++
		return "ok", nil
	}, fastOpts()...)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("Result = %q, want %q", result, "ok")
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	callCount := 0
	result, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		callCount++
		if callCount < 3 {
			return 0, errors.New("temporary error")
		}
		return 42, nil
	}, fastOpts()...)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != 42 {
		t.Errorf("Result = %d, want 42", result)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestDo_ExhaustedReturnsLastErrorUnchanged(t *testing.T) {
	callCount := 0
	testErr := errors.New("persistent error")
	_, err := Do(context.Background(), func(ctx context.Context) (struct{}, error) {
		callCount++
		return struct{}{}, testErr
	}, fastOpts()...)

	if callCount != 4 {
		t.Errorf("Expected 4 calls (initial + 3 retries), got %d", callCount)
	}
	// The last error must come back without wrapping so typed errors
	// survive to the caller.
	if err != testErr {
		t.Errorf("Expected the original error unchanged, got %v", err)
	}
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	callCount := 0
	testErr := errors.New("bad request")
	_, err := Do(context.Background(), func(ctx context.Context) (struct{}, error) {
		callCount++
		return struct{}{}, testErr
	}, fastOpts(WithRetryable(func(error) bool { return false }))...)

	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
	if err != testErr {
		t.Errorf("Expected the original error unchanged, got %v", err)
	}
}

func TestDo_RetryCounts(t *testing.T) {
	tests := []struct {
		name          string
		failures      int
		maxRetries    int
		expectedCalls int
		expectErr     bool
	}{
		{"no failures", 0, 3, 1, false},
		{"one failure", 1, 3, 2, false},
		{"failures up to limit", 3, 3, 4, false},
		{"failures beyond limit", 5, 3, 4, true},
		{"zero retries", 2, 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callCount := 0
			_, err := Do(context.Background(), func(ctx context.Context) (bool, error) {
				callCount++
				if callCount <= tt.failures {
					return false, errors.New("transient")
				}
				return true, nil
			}, fastOpts(WithMaxRetries(tt.maxRetries))...)

			if (err != nil) != tt.expectErr {
				t.Errorf("err = %v, expectErr = %v", err, tt.expectErr)
			}
			if callCount != tt.expectedCalls {
				t.Errorf("calls = %d, want %d", callCount, tt.expectedCalls)
			}
		})
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		callCount++
		cancel()
		return struct{}{}, errors.New("transient")
	}, WithInitialDelay(10*time.Second), WithMaxDelay(10*time.Second))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestConfig_DelayBounds(t *testing.T) {
	config := DefaultConfig()
	config.InitialDelay = 1 * time.Second
	config.MaxDelay = 10 * time.Second
	config.Multiplier = 2.0

	for attempt := 0; attempt < 6; attempt++ {
		delay := config.Delay(attempt)
		if delay > config.MaxDelay {
			t.Errorf("attempt %d: delay %v exceeds max %v", attempt, delay, config.MaxDelay)
		}
		if delay < config.InitialDelay {
			t.Errorf("attempt %d: delay %v below initial %v", attempt, delay, config.InitialDelay)
		}
	}
}
