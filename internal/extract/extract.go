// Package extract applies a model's output rules to raw solver output.
// Rules are evaluated independently; a rule that fails to match or coerce
// yields a missing-value marker for that result only.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Funz/fz-go/pkg/config"
)

// Result is one extracted value, or a missing-value marker.
type Result struct {
	Value   any    // float64 for numeric rules, string otherwise
	Raw     string // matched text before coercion
	Missing bool
}

// Missing is the marker used in rendered tables for absent results.
const MissingMarker = "<missing>"

// String renders the result for table output. A zero Result (a case that
// never produced output) renders as missing.
func (r Result) String() string {
	if r.Missing || r.Value == nil {
		return MissingMarker
	}
	switch v := r.Value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Apply evaluates every declared rule against the raw output and returns one
// Result per declared name. The first capture group carries the value when
// the pattern declares one; otherwise the whole match is used.
func Apply(output string, rules map[string]config.ExtractionRule) map[string]Result {
	results := make(map[string]Result, len(rules))
	for name, rule := range rules {
		results[name] = applyRule(output, rule)
	}
	return results
}

func applyRule(output string, rule config.ExtractionRule) Result {
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		// Patterns are validated at descriptor load; an unparseable one
		// still must not fail the case.
		return Result{Missing: true}
	}

	m := re.FindStringSubmatch(output)
	if m == nil {
		if rule.Default != nil {
			return coerce(*rule.Default, rule.Type)
		}
		return Result{Missing: true}
	}

	raw := m[0]
	if len(m) > 1 && m[1] != "" {
		raw = m[1]
	}
	return coerce(raw, rule.Type)
}

func coerce(raw, typ string) Result {
	if typ == "string" {
		return Result{Value: strings.TrimSpace(raw), Raw: raw}
	}
	v, err := ParseNumber(raw)
	if err != nil {
		// Matched text that does not parse is a missing value, not a crash
		return Result{Raw: raw, Missing: true}
	}
	return Result{Value: v, Raw: raw}
}

// AllMissing reports whether every declared result is a missing marker. A
// finished case with all results missing is recorded Failed(NoResultsExtracted).
func AllMissing(results map[string]Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Missing {
			return false
		}
	}
	return true
}

// ParseNumber parses solver-formatted numbers, tolerating fixed-width
// padding and Fortran-style D exponents ("9.92310D-01").
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	if i := strings.IndexAny(s, "dD"); i >= 0 {
		s = s[:i] + "e" + s[i+1:]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as number: %w", s, err)
	}
	return v, nil
}
