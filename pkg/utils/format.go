package utils

import (
	"strconv"
	"strings"
)

// FormatNumber formats a float using the shortest representation that
// round-trips through strconv.ParseFloat. Distinct values always format to
// distinct strings, which keeps case directory names collision-free.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatValue renders a float for substitution into compiled input.
// Integral floats keep a trailing ".0" (8.0 -> "8.0") so a float-typed value
// stays recognizably floating-point in the solver input; FormatNumber stays
// the shortest form used inside case directory names.
func FormatValue(v float64) string {
	s := FormatNumber(v)
	for _, r := range s {
		if r != '-' && (r < '0' || r > '9') {
			return s
		}
	}
	return s + ".0"
}

// SanitizeToken makes a value safe for use inside a directory name component.
// Characters outside [A-Za-z0-9._+-] are replaced with '_'.
func SanitizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-', r == '+':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
