// Package policy holds the study-level execution policies: bounded retry
// with backoff for failed cases, and a per-calculator failure breaker that
// takes a persistently failing execution target out of rotation.
package policy

import (
	"time"
)

// Policy represents a generic policy interface
type Policy interface {
	// Enabled returns whether the policy is enabled
	Enabled() bool
	// Name returns the policy name for identification
	Name() string
}

// RetryPolicy handles retry logic for failed or timed-out cases
type RetryPolicy interface {
	Policy
	// ShouldRetry determines if a case should be retried after the given
	// completed attempt (0-indexed)
	ShouldRetry(attempt int, err error) bool
	// GetBackoffDuration calculates the backoff before retry attempt number
	// attempt (1-indexed)
	GetBackoffDuration(attempt int) time.Duration
	// GetMaxRetries returns the maximum number of retries allowed
	GetMaxRetries() int
}

// BreakerPolicy tracks per-calculator failures and decides whether a
// calculator may accept more cases
type BreakerPolicy interface {
	Policy
	// Allow reports whether the calculator may be handed another case
	Allow(calculator string) bool
	// RecordSuccess resets the failure streak for the calculator
	RecordSuccess(calculator string)
	// RecordFailure counts one failure; reaching the threshold opens the
	// breaker for the cooldown period
	RecordFailure(calculator string)
}
