package policy

import (
	"time"

	"github.com/Funz/fz-go/pkg/config"
	"github.com/Funz/fz-go/pkg/utils"
)

// retryPolicy implements RetryPolicy
type retryPolicy struct {
	enabled    bool
	maxRetries int
	backoff    utils.BackoffStrategy
}

// NewRetryPolicyFromConfig creates a retry policy from config. A nil config
// yields a disabled policy.
func NewRetryPolicyFromConfig(cfg *config.RetryPolicy) RetryPolicy {
	if cfg == nil {
		return &retryPolicy{}
	}
	return &retryPolicy{
		enabled:    cfg.Enabled,
		maxRetries: cfg.MaxRetries,
		backoff:    utils.BackoffFromConfig(cfg.Backoff, cfg.BaseMs, 0),
	}
}

// NewRetryPolicy creates a retry policy with explicit parameters
func NewRetryPolicy(enabled bool, maxRetries int, backoff string, baseMs int) RetryPolicy {
	return &retryPolicy{
		enabled:    enabled,
		maxRetries: maxRetries,
		backoff:    utils.BackoffFromConfig(backoff, baseMs, 0),
	}
}

func (p *retryPolicy) Enabled() bool {
	return p.enabled
}

func (p *retryPolicy) Name() string {
	return "retry"
}

func (p *retryPolicy) ShouldRetry(attempt int, err error) bool {
	if !p.enabled {
		return false
	}
	if attempt >= p.maxRetries {
		return false
	}
	// Retry on any case-level failure; compile errors never reach here
	return err != nil
}

func (p *retryPolicy) GetBackoffDuration(attempt int) time.Duration {
	if !p.enabled || attempt <= 0 {
		return 0
	}
	return p.backoff.NextDelay(attempt)
}

func (p *retryPolicy) GetMaxRetries() int {
	return p.maxRetries
}
