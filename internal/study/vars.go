package study

import (
	"fmt"
	"sort"
	"strings"
)

// VarSpec is the caller-supplied mapping of variable name to a scalar value
// or an ordered list of candidate values.
type VarSpec struct {
	values map[string][]Value
	lists  map[string]bool // supplied as a list, even when length 1
}

// ParseVarSpec normalizes a caller-supplied variable mapping. Scalars and
// slices of scalars are accepted; anything else is an error.
func ParseVarSpec(vars map[string]any) (*VarSpec, error) {
	spec := &VarSpec{
		values: make(map[string][]Value, len(vars)),
		lists:  make(map[string]bool),
	}
	for name, raw := range vars {
		if name == "" {
			return nil, fmt.Errorf("variable name cannot be empty")
		}
		switch list := raw.(type) {
		case []any:
			if len(list) == 0 {
				return nil, fmt.Errorf("variable %s: value list cannot be empty", name)
			}
			vals := make([]Value, 0, len(list))
			for _, item := range list {
				v, err := NewValue(item)
				if err != nil {
					return nil, fmt.Errorf("variable %s: %w", name, err)
				}
				vals = append(vals, v)
			}
			spec.values[name] = vals
			spec.lists[name] = true
		case []float64:
			vals := make([]Value, 0, len(list))
			for _, item := range list {
				v, _ := NewValue(item)
				vals = append(vals, v)
			}
			if len(vals) == 0 {
				return nil, fmt.Errorf("variable %s: value list cannot be empty", name)
			}
			spec.values[name] = vals
			spec.lists[name] = true
		case []string:
			vals := make([]Value, 0, len(list))
			for _, item := range list {
				v, err := NewValue(item)
				if err != nil {
					return nil, fmt.Errorf("variable %s: %w", name, err)
				}
				vals = append(vals, v)
			}
			if len(vals) == 0 {
				return nil, fmt.Errorf("variable %s: value list cannot be empty", name)
			}
			spec.values[name] = vals
			spec.lists[name] = true
		default:
			v, err := NewValue(raw)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", name, err)
			}
			spec.values[name] = []Value{v}
		}
	}
	return spec, nil
}

// Has reports whether the spec supplies the named variable
func (s *VarSpec) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// IsList reports whether the named variable was supplied as a list
func (s *VarSpec) IsList(name string) bool {
	return s.lists[name]
}

// Names returns all supplied variable names, sorted for stable diagnostics
func (s *VarSpec) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariableMismatchError reports template variables absent from the supplied
// variable set. It is fatal before any case runs.
type VariableMismatchError struct {
	Missing []string
}

func (e *VariableMismatchError) Error() string {
	return fmt.Sprintf("template references undeclared variables: %s", strings.Join(e.Missing, ", "))
}

// Expand crosses every list-valued variable against the scalars and returns
// one Case per combination, in deterministic order: list variables vary in
// discovery order with the rightmost advancing fastest. The second return
// value lists supplied-but-unused variables (a warning, not an error).
func Expand(spec *VarSpec, discovered []string) ([]*Case, []string, error) {
	var missing []string
	for _, name := range discovered {
		if !spec.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &VariableMismatchError{Missing: missing}
	}

	used := make(map[string]bool, len(discovered))
	for _, name := range discovered {
		used[name] = true
	}
	var unused []string
	for _, name := range spec.Names() {
		if !used[name] {
			unused = append(unused, name)
		}
	}

	// List-valued variables drive the product, in discovery order.
	var listVars []string
	total := 1
	for _, name := range discovered {
		if spec.IsList(name) {
			listVars = append(listVars, name)
			total *= len(spec.values[name])
		}
	}

	cases := make([]*Case, 0, total)
	indices := make([]int, len(listVars))
	for i := 0; i < total; i++ {
		assignment := make(map[string]Value, len(discovered))
		for _, name := range discovered {
			assignment[name] = spec.values[name][0]
		}
		for j, name := range listVars {
			assignment[name] = spec.values[name][indices[j]]
		}

		cases = append(cases, &Case{
			Index:      i,
			Name:       caseName(listVars, assignment),
			Assignment: assignment,
			Variables:  append([]string(nil), discovered...),
			ListVars:   append([]string(nil), listVars...),
			Status:     StatusPending,
		})

		// Odometer increment, rightmost fastest
		for j := len(listVars) - 1; j >= 0; j-- {
			indices[j]++
			if indices[j] < len(spec.values[listVars[j]]) {
				break
			}
			indices[j] = 0
		}
	}

	return cases, unused, nil
}

// caseName builds the deterministic directory name for one assignment:
// "name=value" for every list-valued variable in discovery order. A study
// with no list-valued variables has a single case named "default".
func caseName(listVars []string, assignment map[string]Value) string {
	if len(listVars) == 0 {
		return "default"
	}
	parts := make([]string, 0, len(listVars))
	for _, name := range listVars {
		parts = append(parts, name+"="+assignment[name].NameComponent())
	}
	return strings.Join(parts, ",")
}
