package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream unavailable")

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(errUpstream)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errUpstream.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, errUpstream) {
		t.Error("wrapped error lost")
	}
	if IsRetryable(errUpstream) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err %v calls %d", err, calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return errUpstream
	})
	if err != errUpstream || calls != 1 {
		t.Errorf("permanent failure: err %v calls %d", err, calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(errUpstream)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("transient failure: err %v calls %d", err, calls)
	}

	// Attempts exhausted
	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return Retryable(errUpstream)
	})
	if !errors.Is(err, errUpstream) || calls != 3 {
		t.Errorf("exhausted: err %v calls %d", err, calls)
	}

	// Zero attempts still runs once
	calls = 0
	_ = Retry(ctx, 0, time.Millisecond, func() error { calls++; return nil })
	if calls != 1 {
		t.Errorf("zero attempts ran %d times", calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := Retry(ctx, 3, time.Hour, func() error {
		return Retryable(errUpstream)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestStatusRetryable(t *testing.T) {
	tests := map[int]bool{200: false, 400: false, 401: false, 408: true, 429: true, 500: true, 503: true}
	for code, want := range tests {
		if got := StatusRetryable(code); got != want {
			t.Errorf("StatusRetryable(%d) = %v, want %v", code, got, want)
		}
	}
}
