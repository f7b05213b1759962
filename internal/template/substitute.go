package template

import (
	"strings"

	"github.com/Funz/fz-go/pkg/config"
)

// Substitute replaces every recognized variable reference that has an entry
// in values with that entry, in a single left-to-right pass. All other bytes
// pass through unchanged, comment lines included. References to names absent
// from values are left verbatim; the expander guarantees this does not happen
// for a validated study.
func Substitute(text string, m *config.Model, values map[string]string) (string, error) {
	lines := splitLines(text)
	var b strings.Builder
	b.Grow(len(text))

	for lineNo, line := range lines {
		if lineNo > 0 {
			b.WriteByte('\n')
		}
		if isCommentLine(line, m) {
			b.WriteString(line)
			continue
		}

		toks, serr := scanLine(line, m)
		if serr != nil {
			serr.Line = lineNo + 1
			return "", serr
		}

		pos := 0
		for _, tok := range toks {
			v, ok := values[tok.name]
			if !ok {
				continue
			}
			b.WriteString(line[pos:tok.start])
			b.WriteString(v)
			pos = tok.end
		}
		b.WriteString(line[pos:])
	}

	return b.String(), nil
}
