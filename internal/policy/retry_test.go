package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/Funz/fz-go/pkg/config"
)

func TestNewRetryPolicyFromConfig(t *testing.T) {
	cfg := &config.RetryPolicy{
		Enabled:    true,
		MaxRetries: 3,
		Backoff:    "exponential",
		BaseMs:     10,
	}
	policy := NewRetryPolicyFromConfig(cfg)
	if !policy.Enabled() {
		t.Fatalf("expected policy to be enabled")
	}
	if policy.Name() != "retry" {
		t.Fatalf("expected name to be 'retry', got %s", policy.Name())
	}
	if policy.GetMaxRetries() != 3 {
		t.Fatalf("expected max retries 3, got %d", policy.GetMaxRetries())
	}
}

func TestNewRetryPolicyFromNilConfig(t *testing.T) {
	policy := NewRetryPolicyFromConfig(nil)
	if policy.Enabled() {
		t.Fatalf("expected nil config to yield a disabled policy")
	}
	if policy.ShouldRetry(0, errors.New("boom")) {
		t.Fatalf("disabled policy must not retry")
	}
}

func TestRetryPolicyShouldRetry(t *testing.T) {
	policy := NewRetryPolicy(true, 3, "exponential", 10)

	if !policy.ShouldRetry(0, errors.New("test error")) {
		t.Fatalf("expected retry after first failed attempt")
	}
	if !policy.ShouldRetry(2, errors.New("test error")) {
		t.Fatalf("expected retry after third failed attempt")
	}
	if policy.ShouldRetry(3, errors.New("test error")) {
		t.Fatalf("expected no retry once max retries reached")
	}
	if policy.ShouldRetry(0, nil) {
		t.Fatalf("expected no retry without an error")
	}

	disabled := NewRetryPolicy(false, 3, "exponential", 10)
	if disabled.ShouldRetry(0, errors.New("test error")) {
		t.Fatalf("expected no retry when disabled")
	}
}

func TestRetryPolicyGetBackoffDurationExponential(t *testing.T) {
	policy := NewRetryPolicy(true, 3, "exponential", 10)

	// Exponential: baseMs * 2^(attempt-1)
	for attempt, want := range map[int]time.Duration{
		1: 10 * time.Millisecond,
		2: 20 * time.Millisecond,
		3: 40 * time.Millisecond,
	} {
		if got := policy.GetBackoffDuration(attempt); got != want {
			t.Fatalf("attempt %d: expected %v, got %v", attempt, want, got)
		}
	}

	if got := policy.GetBackoffDuration(0); got != 0 {
		t.Fatalf("expected 0 for attempt 0, got %v", got)
	}
	if got := policy.GetBackoffDuration(-1); got != 0 {
		t.Fatalf("expected 0 for negative attempt, got %v", got)
	}
}

func TestRetryPolicyGetBackoffDurationLinear(t *testing.T) {
	policy := NewRetryPolicy(true, 3, "linear", 10)

	// Linear: baseMs * attempt
	for attempt, want := range map[int]time.Duration{
		1: 10 * time.Millisecond,
		2: 20 * time.Millisecond,
		3: 30 * time.Millisecond,
	} {
		if got := policy.GetBackoffDuration(attempt); got != want {
			t.Fatalf("attempt %d: expected %v, got %v", attempt, want, got)
		}
	}
}

func TestRetryPolicyGetBackoffDurationConstant(t *testing.T) {
	policy := NewRetryPolicy(true, 3, "constant", 10)

	for attempt := 1; attempt <= 3; attempt++ {
		if got := policy.GetBackoffDuration(attempt); got != 10*time.Millisecond {
			t.Fatalf("attempt %d: expected 10ms, got %v", attempt, got)
		}
	}
}

func TestRetryPolicyGetBackoffDurationDefault(t *testing.T) {
	// Unknown backoff type defaults to exponential
	policy := NewRetryPolicy(true, 3, "unknown", 10)
	if got := policy.GetBackoffDuration(1); got != 10*time.Millisecond {
		t.Fatalf("expected 10ms (exponential default), got %v", got)
	}
}

func TestRetryPolicyWhenDisabled(t *testing.T) {
	policy := NewRetryPolicy(false, 3, "exponential", 10)
	if got := policy.GetBackoffDuration(1); got != 0 {
		t.Fatalf("expected 0 when disabled, got %v", got)
	}
}
