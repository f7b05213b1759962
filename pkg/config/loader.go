package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultModelDir is where installed plugin models live, relative to the
// working directory, matching the plugin layout (.fz/models/<id>.json).
const DefaultModelDir = ".fz/models"

// DefaultCalculatorDir is where calculator descriptors live.
const DefaultCalculatorDir = ".fz/calculators"

// LoadModel loads and parses a model descriptor file (JSON or YAML by
// extension).
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}
	var m *Model
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err = ParseModelYAML(data)
	default:
		m, err = ParseModelJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}
	return m, nil
}

// LoadCalculator loads and parses a calculator descriptor file. The
// descriptor's Name defaults to the file basename, matching how the plugin
// contract names calculators (Localhost_Moret.json -> "Localhost_Moret").
func LoadCalculator(path string) (*Calculator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calculator file %s: %w", path, err)
	}
	var c *Calculator
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err = ParseCalculatorYAML(data)
	default:
		c, err = ParseCalculatorJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse calculator file %s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, nil
}

// LoadStudy loads and parses a study configuration file
func LoadStudy(path string) (*Study, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read study config %s: %w", path, err)
	}
	s, err := ParseStudyYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse study config %s: %w", path, err)
	}
	return s, nil
}

// FindModel resolves a model by id inside dir (DefaultModelDir when empty),
// trying <id>.json then <id>.yaml.
func FindModel(dir, id string) (*Model, error) {
	if dir == "" {
		dir = DefaultModelDir
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			m, err := LoadModel(path)
			if err != nil {
				return nil, err
			}
			if m.ID != id {
				return nil, fmt.Errorf("model file %s declares id %q, expected %q", path, m.ID, id)
			}
			return m, nil
		}
	}
	return nil, fmt.Errorf("model %q not found in %s", id, dir)
}

// FindCalculator resolves a calculator descriptor by name inside dir
// (DefaultCalculatorDir when empty).
func FindCalculator(dir, name string) (*Calculator, error) {
	if dir == "" {
		dir = DefaultCalculatorDir
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return LoadCalculator(path)
		}
	}
	return nil, fmt.Errorf("calculator %q not found in %s", name, dir)
}

// LoadCalculators loads every calculator descriptor in dir
// (DefaultCalculatorDir when empty), sorted by file name.
func LoadCalculators(dir string) ([]*Calculator, error) {
	if dir == "" {
		dir = DefaultCalculatorDir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read calculator directory %s: %w", dir, err)
	}
	var calcs []*Calculator
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		c, err := LoadCalculator(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		calcs = append(calcs, c)
	}
	if len(calcs) == 0 {
		return nil, fmt.Errorf("no calculator descriptors in %s", dir)
	}
	return calcs, nil
}

// validateModel performs validation on a model descriptor
func validateModel(m *Model) error {
	if m.ID == "" {
		return fmt.Errorf("model id cannot be empty")
	}
	if len(m.Delim) != 2 {
		return fmt.Errorf("model %s: delim must be exactly two characters (open, close), got %q", m.ID, m.Delim)
	}
	if m.Delim[0] == m.Delim[1] {
		return fmt.Errorf("model %s: open and close delimiters must differ, got %q", m.ID, m.Delim)
	}
	for name, rule := range m.Output {
		if name == "" {
			return fmt.Errorf("model %s: output name cannot be empty", m.ID)
		}
		if rule.Pattern == "" {
			return fmt.Errorf("model %s: output %s has an empty pattern", m.ID, name)
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("model %s: output %s pattern does not compile: %w", m.ID, name, err)
		}
		if rule.Type != "numeric" && rule.Type != "string" {
			return fmt.Errorf("model %s: output %s has invalid type %q (must be numeric or string)", m.ID, name, rule.Type)
		}
	}
	return nil
}

// validateCalculator performs validation on a calculator descriptor
func validateCalculator(c *Calculator) error {
	if c.URI == "" {
		return fmt.Errorf("calculator uri cannot be empty")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("calculator %s: at least one model must be declared", c.Label())
	}
	for id, cmd := range c.Models {
		if id == "" {
			return fmt.Errorf("calculator %s: model id cannot be empty", c.Label())
		}
		if !c.IsRemote() && strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("calculator %s: model %s has an empty launch command", c.Label(), id)
		}
	}
	return nil
}

// validateStudy performs validation on a study configuration
func validateStudy(s *Study) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[s.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", s.LogLevel)
	}

	if s.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", s.Concurrency)
	}
	if s.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms cannot be negative, got %d", s.TimeoutMs)
	}

	if s.Retries != nil {
		if s.Retries.MaxRetries < 0 {
			return fmt.Errorf("retries max_retries cannot be negative, got %d", s.Retries.MaxRetries)
		}
		validBackoffs := map[string]bool{
			"exponential": true,
			"linear":      true,
			"constant":    true,
		}
		if !validBackoffs[s.Retries.Backoff] {
			return fmt.Errorf("invalid backoff type: %s (must be exponential, linear, or constant)", s.Retries.Backoff)
		}
		if s.Retries.BaseMs < 0 {
			return fmt.Errorf("retries base_ms cannot be negative, got %d", s.Retries.BaseMs)
		}
	}

	if s.Breaker != nil {
		if s.Breaker.FailureThreshold < 0 {
			return fmt.Errorf("breaker failure_threshold cannot be negative, got %d", s.Breaker.FailureThreshold)
		}
		if s.Breaker.CooldownMs < 0 {
			return fmt.Errorf("breaker cooldown_ms cannot be negative, got %d", s.Breaker.CooldownMs)
		}
	}

	return nil
}
