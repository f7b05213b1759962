// Package template implements variable discovery and substitution over solver
// input templates. Scanning is a pure function over immutable input so that
// concurrent studies can share one model safely.
package template

import (
	"fmt"
	"strings"

	"github.com/Funz/fz-go/pkg/config"
)

// SyntaxError reports a malformed variable reference, naming the offending
// line (1-based) and byte offset within it (0-based).
type SyntaxError struct {
	Line   int
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at line %d, offset %d: %s", e.Line, e.Offset, e.Msg)
}

// token is one recognized variable reference within a line.
type token struct {
	name  string
	start int // byte offset of the prefix (or open delimiter) in the line
	end   int // byte offset just past the close delimiter
}

// Discover returns the distinct variable names referenced in the template, in
// first-seen order. Lines beginning with the model's comment marker are
// skipped. A zero-variable template yields an empty, non-nil slice.
func Discover(text string, m *config.Model) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	for lineNo, line := range splitLines(text) {
		if isCommentLine(line, m) {
			continue
		}
		toks, serr := scanLine(line, m)
		if serr != nil {
			serr.Line = lineNo + 1
			return nil, serr
		}
		for _, tok := range toks {
			if !seen[tok.name] {
				seen[tok.name] = true
				names = append(names, tok.name)
			}
		}
	}

	if names == nil {
		names = []string{}
	}
	return names, nil
}

// scanLine finds variable references of the form `prefix? open name close` in
// one line. An open delimiter without a matching close, or a nested open
// before the close, is a syntax error. Delimited content that is not a valid
// variable name passes through as plain text.
func scanLine(line string, m *config.Model) ([]token, *SyntaxError) {
	var toks []token
	open, close := m.OpenDelim(), m.CloseDelim()
	prefix := m.VarPrefix

	i := 0
	for i < len(line) {
		start := indexRef(line, i, prefix, open)
		if start < 0 {
			break
		}

		// Position of the first name byte
		j := start + len(prefix) + 1
		k := j
		for {
			if k >= len(line) {
				return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("missing closing %q", string(close))}
			}
			if line[k] == open {
				return nil, &SyntaxError{Offset: k, Msg: fmt.Sprintf("nested %q before closing %q", string(open), string(close))}
			}
			if line[k] == close {
				break
			}
			k++
		}

		name := line[j:k]
		if validName(name) {
			toks = append(toks, token{name: name, start: start, end: k + 1})
			i = k + 1
		} else {
			// Delimited but not a variable reference; keep scanning after
			// the open delimiter.
			i = j
		}
	}
	return toks, nil
}

// indexRef returns the byte offset of the next `prefix open` occurrence at or
// after from, or -1.
func indexRef(line string, from int, prefix string, open byte) int {
	needle := prefix + string(open)
	idx := strings.Index(line[from:], needle)
	if idx < 0 {
		return -1
	}
	return from + idx
}

func isCommentLine(line string, m *config.Model) bool {
	return m.CommentLine != "" && strings.HasPrefix(line, m.CommentLine)
}

// validName reports whether s is a legal variable name:
// [A-Za-z_][A-Za-z0-9_]*.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// splitLines splits template text into lines without dropping information:
// the line content excludes the terminator, which Substitute re-emits.
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}
