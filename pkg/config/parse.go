package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

func jsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ParseModelJSON parses a Model descriptor from JSON bytes and validates it.
// JSON is the on-disk plugin contract (.fz/models/<id>.json).
func ParseModelJSON(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model json: %w", err)
	}

	if err := validateModel(&m); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	return &m, nil
}

// ParseModelYAML parses a Model descriptor from YAML bytes and validates it.
func ParseModelYAML(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model yaml: %w", err)
	}

	if err := validateModel(&m); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	return &m, nil
}

// ParseCalculatorJSON parses a Calculator descriptor from JSON bytes and
// validates it.
func ParseCalculatorJSON(data []byte) (*Calculator, error) {
	var c Calculator
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse calculator json: %w", err)
	}

	if err := validateCalculator(&c); err != nil {
		return nil, fmt.Errorf("invalid calculator: %w", err)
	}

	return &c, nil
}

// ParseCalculatorYAML parses a Calculator descriptor from YAML bytes and
// validates it.
func ParseCalculatorYAML(data []byte) (*Calculator, error) {
	var c Calculator
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse calculator yaml: %w", err)
	}

	if err := validateCalculator(&c); err != nil {
		return nil, fmt.Errorf("invalid calculator: %w", err)
	}

	return &c, nil
}

// ParseStudyYAML parses a Study configuration from YAML bytes and validates it.
func ParseStudyYAML(data []byte) (*Study, error) {
	s := DefaultStudy()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse study yaml: %w", err)
	}

	if err := validateStudy(s); err != nil {
		return nil, fmt.Errorf("invalid study config: %w", err)
	}

	return s, nil
}
