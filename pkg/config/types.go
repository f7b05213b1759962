package config

import (
	"fmt"
	"strings"
	"time"
)

// Model describes one solver family: how variables are written inside its
// input templates and how results are extracted from its output.
type Model struct {
	ID          string                    `json:"id" yaml:"id"`
	VarPrefix   string                    `json:"varprefix" yaml:"varprefix"`
	Delim       string                    `json:"delim" yaml:"delim"` // two characters: open, close
	CommentLine string                    `json:"commentline" yaml:"commentline"`
	Output      map[string]ExtractionRule `json:"output" yaml:"output"`
}

// OpenDelim returns the opening delimiter byte of a variable reference
func (m *Model) OpenDelim() byte {
	return m.Delim[0]
}

// CloseDelim returns the closing delimiter byte of a variable reference
func (m *Model) CloseDelim() byte {
	return m.Delim[1]
}

// ExtractionRule describes how one named result is pulled out of solver
// output: a regular expression (first capture group, or the whole match when
// there is none), the value type, and an optional default used when the
// pattern does not match.
type ExtractionRule struct {
	Pattern string  `json:"pattern" yaml:"pattern"`
	Type    string  `json:"type" yaml:"type"` // numeric or string
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`
}

// UnmarshalJSON accepts both the object form and the plugin shorthand where
// the rule is a bare pattern string (numeric by convention).
func (r *ExtractionRule) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		pattern, err := unquoteJSONString(data)
		if err != nil {
			return err
		}
		r.Pattern = pattern
		r.Type = "numeric"
		return nil
	}

	type plain ExtractionRule
	var p plain
	if err := jsonUnmarshal(data, &p); err != nil {
		return err
	}
	*r = ExtractionRule(p)
	if r.Type == "" {
		r.Type = "numeric"
	}
	return nil
}

// UnmarshalYAML mirrors the JSON shorthand for YAML-form descriptors.
func (r *ExtractionRule) UnmarshalYAML(unmarshal func(any) error) error {
	var pattern string
	if err := unmarshal(&pattern); err == nil {
		r.Pattern = pattern
		r.Type = "numeric"
		return nil
	}

	type plain ExtractionRule
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*r = ExtractionRule(p)
	if r.Type == "" {
		r.Type = "numeric"
	}
	return nil
}

// Calculator describes one execution target and the launch command per
// supported model.
type Calculator struct {
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	URI    string            `json:"uri" yaml:"uri"`
	Models map[string]string `json:"models" yaml:"models"` // model id -> launch command
}

// Supports reports whether the calculator can run the given model
func (c *Calculator) Supports(modelID string) bool {
	_, ok := c.Models[modelID]
	return ok
}

// Command returns the launch command for the given model
func (c *Calculator) Command(modelID string) (string, bool) {
	cmd, ok := c.Models[modelID]
	return cmd, ok
}

// IsRemote reports whether the calculator URI points at a remote daemon
func (c *Calculator) IsRemote() bool {
	return strings.HasPrefix(c.URI, "http://") || strings.HasPrefix(c.URI, "https://")
}

// Label returns a human-readable identifier for logging
func (c *Calculator) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.URI
}

// Study represents one parametric-study configuration
type Study struct {
	LogLevel    string         `yaml:"log_level"`
	ResultsRoot string         `yaml:"results_root"`
	Concurrency int            `yaml:"concurrency"` // worker slots per calculator
	TimeoutMs   int            `yaml:"timeout_ms"`  // per case; 0 disables the timeout
	Retries     *RetryPolicy   `yaml:"retries,omitempty"`
	Breaker     *BreakerPolicy `yaml:"breaker,omitempty"`
}

// RetryPolicy represents retry configuration for failed cases
type RetryPolicy struct {
	Enabled    bool   `yaml:"enabled"`
	MaxRetries int    `yaml:"max_retries"`
	Backoff    string `yaml:"backoff"` // exponential, linear, constant
	BaseMs     int    `yaml:"base_ms"`
}

// BreakerPolicy represents the per-calculator failure breaker
type BreakerPolicy struct {
	Enabled          bool `yaml:"enabled"`
	FailureThreshold int  `yaml:"failure_threshold"`
	CooldownMs       int  `yaml:"cooldown_ms"`
}

// GetTimeout returns the per-case timeout as a duration (0 means none)
func (s *Study) GetTimeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// DefaultStudy returns a study configuration with usable defaults
func DefaultStudy() *Study {
	return &Study{
		LogLevel:    "info",
		ResultsRoot: "results",
		Concurrency: 4,
	}
}

func unquoteJSONString(data []byte) (string, error) {
	var s string
	if err := jsonUnmarshal(data, &s); err != nil {
		return "", fmt.Errorf("invalid pattern string: %w", err)
	}
	return s, nil
}
