package template

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Funz/fz-go/pkg/config"
)

func moretModel() *config.Model {
	return &config.Model{
		ID:          "Moret",
		VarPrefix:   "$",
		Delim:       "()",
		CommentLine: "*",
	}
}

func TestDiscoverFindsVariablesInOrder(t *testing.T) {
	text := "GEOM\n  TYPE 1 SPHE $(radius)\n  CONC $(u235_frac) $(radius)\n"
	names, err := Discover(text, moretModel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"radius", "u235_frac"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestDiscoverEmptyTemplate(t *testing.T) {
	names, err := Discover("SPHE 8.0\nVOLU Ext0\n", moretModel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty set, got %v", names)
	}
	if names == nil {
		t.Fatalf("expected non-nil empty slice")
	}
}

func TestDiscoverSkipsCommentLines(t *testing.T) {
	text := "* comment mentioning $(ghost)\nSPHE $(radius)\n"
	names, err := Discover(text, moretModel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"radius"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestDiscoverIsIdempotent(t *testing.T) {
	text := "SPHE $(radius)\nCONC $(u235_frac)\n"
	first, err := Discover(text, moretModel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Discover(text, moretModel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("discovery not stable: %v vs %v", first, second)
	}
}

func TestDiscoverUnterminatedReference(t *testing.T) {
	_, err := Discover("ok line\nSPHE $(radius\n", moretModel())
	if err == nil {
		t.Fatalf("expected syntax error")
	}
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if serr.Line != 2 {
		t.Fatalf("expected error on line 2, got %d", serr.Line)
	}
	if serr.Offset != 5 {
		t.Fatalf("expected offset 5, got %d", serr.Offset)
	}
}

func TestDiscoverNestedReference(t *testing.T) {
	_, err := Discover("SPHE $(ra$(dius))\n", moretModel())
	if err == nil {
		t.Fatalf("expected syntax error for nested open delimiter")
	}
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
}

func TestDiscoverIgnoresNonNameContent(t *testing.T) {
	// Delimited content that is not a legal variable name is plain text.
	names, err := Discover("SPHE $(8.0) $(radius)\n", moretModel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"radius"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestDiscoverBraceDelimiters(t *testing.T) {
	m := &config.Model{ID: "Moret", VarPrefix: "$", Delim: "{}", CommentLine: "*"}
	names, err := Discover("SPHE ${radius}\nCONC ${u5}\n", m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"radius", "u5"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestDiscoverEmptyPrefix(t *testing.T) {
	m := &config.Model{ID: "Plain", VarPrefix: "", Delim: "{}", CommentLine: "#"}
	names, err := Discover("value = {x}\n# {skipped}\n", m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"x"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestSubstitute(t *testing.T) {
	text := "SPHE $(radius)\n"
	out, err := Substitute(text, moretModel(), map[string]string{"radius": "8.5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "SPHE 8.5\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSubstituteLeavesCommentLinesUntouched(t *testing.T) {
	text := "* keep $(radius) as-is\nSPHE $(radius)\n"
	out, err := Substitute(text, moretModel(), map[string]string{"radius": "8.5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "* keep $(radius) as-is\nSPHE 8.5\n"
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestSubstituteMultipleOccurrences(t *testing.T) {
	text := "A $(x) B $(y) C $(x)"
	out, err := Substitute(text, moretModel(), map[string]string{"x": "1", "y": "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "A 1 B 2 C 1" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSubstitutePassthroughWithoutVariables(t *testing.T) {
	text := "MORET_BEGIN\nTITLE GODIVA\nENDD\n"
	out, err := Substitute(text, moretModel(), map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != text {
		t.Fatalf("expected byte-identical passthrough, got %q", out)
	}
}
