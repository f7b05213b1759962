package policy

import (
	"sync"
	"time"

	"github.com/Funz/fz-go/pkg/config"
)

// breakerPolicy implements BreakerPolicy
type breakerPolicy struct {
	enabled bool
	// failureThreshold is the number of consecutive failures before opening
	failureThreshold int
	// cooldown is how long an open breaker rejects cases before a new probe
	cooldown time.Duration
	// breakers tracks state per calculator
	breakers map[string]*breakerState
	mu       sync.Mutex
	now      func() time.Time
}

// breakerState tracks the failure streak for one calculator
type breakerState struct {
	failureCount int
	openedAt     time.Time
	open         bool
}

// NewBreakerPolicyFromConfig creates a breaker policy from config. A nil
// config yields a disabled policy.
func NewBreakerPolicyFromConfig(cfg *config.BreakerPolicy) BreakerPolicy {
	if cfg == nil {
		return &breakerPolicy{now: time.Now}
	}
	return NewBreakerPolicy(cfg.Enabled, cfg.FailureThreshold, time.Duration(cfg.CooldownMs)*time.Millisecond)
}

// NewBreakerPolicy creates a breaker policy with explicit parameters
func NewBreakerPolicy(enabled bool, failureThreshold int, cooldown time.Duration) BreakerPolicy {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	return &breakerPolicy{
		enabled:          enabled,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		breakers:         make(map[string]*breakerState),
		now:              time.Now,
	}
}

func (p *breakerPolicy) Enabled() bool {
	return p.enabled
}

func (p *breakerPolicy) Name() string {
	return "breaker"
}

func (p *breakerPolicy) Allow(calculator string) bool {
	if !p.enabled {
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.breakers[calculator]
	if !ok {
		return true
	}
	if !b.open {
		return true
	}
	if p.now().Sub(b.openedAt) >= p.cooldown {
		// Cooldown elapsed: let one case through as a probe. A failure
		// re-opens the breaker immediately.
		b.open = false
		b.failureCount = p.failureThreshold - 1
		return true
	}
	return false
}

func (p *breakerPolicy) RecordSuccess(calculator string) {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.breakers[calculator]; ok {
		b.failureCount = 0
		b.open = false
	}
}

func (p *breakerPolicy) RecordFailure(calculator string) {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.breakers[calculator]
	if !ok {
		b = &breakerState{}
		p.breakers[calculator] = b
	}
	b.failureCount++
	if b.failureCount >= p.failureThreshold {
		b.open = true
		b.openedAt = p.now()
	}
}
