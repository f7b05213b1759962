// Package study holds the per-study domain model: variable specs, case
// expansion, the case lifecycle state machine, case compilation, and the
// final results table.
package study

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Funz/fz-go/pkg/utils"
)

// Value is one concrete variable value. Raw is the text substituted into the
// compiled input; values supplied as strings keep their text verbatim, so
// "8.0" stays "8.0" in the solver input. Numeric values additionally carry
// the parsed number used for canonical case naming.
type Value struct {
	Raw     string
	Num     float64
	Numeric bool
}

// NewValue normalizes a caller-supplied scalar into a Value.
func NewValue(v any) (Value, error) {
	switch x := v.(type) {
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return Value{Raw: x, Num: n, Numeric: true}, nil
		}
		return Value{Raw: x}, nil
	case float64:
		// Float-typed values substitute with a decimal point kept, so 8.0
		// compiles to "8.0"; the case name still uses the shortest form.
		return Value{Raw: utils.FormatValue(x), Num: x, Numeric: true}, nil
	case float32:
		return NewValue(float64(x))
	case int:
		return Value{Raw: strconv.Itoa(x), Num: float64(x), Numeric: true}, nil
	case int64:
		return Value{Raw: strconv.FormatInt(x, 10), Num: float64(x), Numeric: true}, nil
	case bool:
		return Value{Raw: strconv.FormatBool(x)}, nil
	case fmt.Stringer:
		return NewValue(x.String())
	default:
		return Value{}, fmt.Errorf("unsupported variable value of type %T", v)
	}
}

// NameComponent returns the canonical form of the value used inside case
// directory names. Numeric values use the shortest round-trip formatting
// (8.0 -> "8", 8.5 -> "8.5"), which is injective for distinct numbers.
func (v Value) NameComponent() string {
	if v.Numeric {
		return utils.FormatNumber(v.Num)
	}
	return utils.SanitizeToken(v.Raw)
}
