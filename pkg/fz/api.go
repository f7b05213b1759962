// Package fz is the caller-facing API of the parametric-study engine. It
// exposes the three framework operations plugins target: discover the
// variables a template references, compile concrete cases, and run a full
// study across one or more calculators.
package fz

import (
	"context"
	"fmt"

	"github.com/Funz/fz-go/internal/calculator"
	"github.com/Funz/fz-go/internal/run"
	"github.com/Funz/fz-go/internal/study"
	"github.com/Funz/fz-go/internal/template"
	"github.com/Funz/fz-go/pkg/config"
	"github.com/Funz/fz-go/pkg/logger"
	"github.com/Funz/fz-go/pkg/utils"
)

// ErrCalculatorUnavailable reports that no execution target could be reached
// or none supports the study's model.
var ErrCalculatorUnavailable = calculator.ErrUnavailable

// TemplateSyntaxError reports malformed variable delimiters, with the line
// and offset of the offending token.
type TemplateSyntaxError = template.SyntaxError

// VariableMismatchError reports template variables absent from the supplied
// variable set.
type VariableMismatchError = study.VariableMismatchError

// CompileError reports an I/O failure while writing a case directory.
type CompileError = study.CompileError

// Discover returns the variable names referenced by the template text, in
// first-seen order. A template with no references yields an empty set.
func Discover(templateText string, m *config.Model) ([]string, error) {
	return template.Discover(templateText, m)
}

// DiscoverFile is Discover over a template file
func DiscoverFile(path string, m *config.Model) ([]string, error) {
	tmpl, err := template.Load(path)
	if err != nil {
		return nil, err
	}
	return template.Discover(tmpl.Text, m)
}

// Compile expands the variable spec and writes one compiled case directory
// per combination under outputRoot. It returns the directories in case order.
func Compile(templatePath string, m *config.Model, vars map[string]any, outputRoot string) ([]string, error) {
	tmpl, err := template.Load(templatePath)
	if err != nil {
		return nil, err
	}
	cases, err := expand(tmpl, m, vars)
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(cases))
	for _, c := range cases {
		if err := study.Compile(tmpl, m, c, outputRoot); err != nil {
			return dirs, err
		}
		dirs = append(dirs, c.Dir)
	}
	return dirs, nil
}

// RunRequest describes one study
type RunRequest struct {
	TemplatePath string
	Model        *config.Model
	Variables    map[string]any
	Calculators  []*config.Calculator
	Study        *config.Study // nil uses defaults
	ResultsRoot  string        // empty uses the study config, then "results"
}

// Run drives a full study to completion and returns its results table. The
// table has one row per requested case; cancelling ctx marks unfinished cases
// Failed(Cancelled) rather than dropping them.
func Run(ctx context.Context, req RunRequest) (*Result, error) {
	id := utils.GenerateStudyID()
	tmpl, err := template.Load(req.TemplatePath)
	if err != nil {
		return nil, err
	}
	cases, err := expand(tmpl, req.Model, req.Variables)
	if err != nil {
		return nil, err
	}
	adapters, err := buildAdapters(req.Model, req.Calculators)
	if err != nil {
		return nil, err
	}

	cfg := req.Study
	if cfg == nil {
		cfg = config.DefaultStudy()
	}
	root := req.ResultsRoot
	if root == "" {
		root = cfg.ResultsRoot
	}
	if root == "" {
		root = "results"
	}

	logger.Info("study created", "study", id,
		"model", req.Model.ID, "template", tmpl.Name, "cases", len(cases))

	table, err := run.New(req.Model, adapters, cfg).Run(ctx, tmpl, cases, root)
	if table == nil {
		return nil, err
	}
	res := fromTable(table, root)
	res.ID = id
	return res, err
}

func expand(tmpl *template.Template, m *config.Model, vars map[string]any) ([]*study.Case, error) {
	discovered, err := template.Discover(tmpl.Text, m)
	if err != nil {
		return nil, err
	}
	spec, err := study.ParseVarSpec(vars)
	if err != nil {
		return nil, err
	}
	cases, unused, err := study.Expand(spec, discovered)
	if err != nil {
		return nil, err
	}
	for _, name := range unused {
		logger.Warn("supplied variable not referenced by template", "variable", name)
	}
	return cases, nil
}

// buildAdapters performs the Model x Calculator compatibility check once per
// study and selects the adapter variant per calculator.
func buildAdapters(m *config.Model, calcs []*config.Calculator) ([]calculator.Adapter, error) {
	adapters := make([]calculator.Adapter, 0, len(calcs))
	for _, c := range calcs {
		if !c.Supports(m.ID) {
			logger.Warn("calculator does not support model, skipped",
				"calculator", c.Label(), "model", m.ID)
			continue
		}
		ad, err := calculator.New(c, m.ID)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, ad)
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("%w: no configured calculator supports model %s", ErrCalculatorUnavailable, m.ID)
	}
	return adapters, nil
}
