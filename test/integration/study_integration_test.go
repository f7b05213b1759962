//go:build integration
// +build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Funz/fz-go/pkg/config"
	"github.com/Funz/fz-go/pkg/fz"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("resolve repo root: %v", err)
	}
	return root
}

func TestIntegration_PluginDescriptorsLoad(t *testing.T) {
	root := repoRoot(t)

	model, err := config.FindModel(filepath.Join(root, ".fz", "models"), "Moret")
	if err != nil {
		t.Fatalf("FindModel failed: %v", err)
	}
	if model.VarPrefix != "$" || model.Delim != "{}" || model.CommentLine != "*" {
		t.Fatalf("unexpected Moret syntax convention: %+v", model)
	}
	if len(model.Output) == 0 {
		t.Fatalf("expected Moret model to declare outputs")
	}

	calcs, err := config.LoadCalculators(filepath.Join(root, ".fz", "calculators"))
	if err != nil {
		t.Fatalf("LoadCalculators failed: %v", err)
	}
	for _, c := range calcs {
		if !c.Supports("Moret") {
			t.Fatalf("expected calculator %s to support Moret", c.Label())
		}
	}
}

func TestIntegration_MoretExampleStudy(t *testing.T) {
	root := repoRoot(t)

	// The shipped descriptor declares its launcher relative to the repo
	// root; run the study from there, exactly as a user would.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	model, err := config.FindModel("", "Moret")
	if err != nil {
		t.Fatalf("FindModel failed: %v", err)
	}

	// Stand-in solver; the launcher resolves it through MORET_BIN.
	fake := filepath.Join(t.TempDir(), "moret.py")
	script := "#!/bin/sh\necho \"  KEFF = 0.99231  SIGMA = 0.00084\"\n"
	if err := os.WriteFile(fake, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake solver: %v", err)
	}
	t.Setenv("MORET_BIN", fake)

	calc, err := config.FindCalculator("", "Localhost_Moret")
	if err != nil {
		t.Fatalf("FindCalculator failed: %v", err)
	}

	result, err := fz.Run(context.Background(), fz.RunRequest{
		TemplatePath: filepath.Join(root, "examples", "Moret", "godiva.m5"),
		Model:        model,
		Variables: map[string]any{
			"radius": []any{"8.0", "8.5"},
			"u5":     "4.49988E-02",
		},
		Calculators: []*config.Calculator{calc},
		Study:       &config.Study{Concurrency: 2},
		ResultsRoot: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Succeeded() != 2 {
		t.Fatalf("expected 2 succeeded cases, got %d", result.Succeeded())
	}
	if result.Cases[0].Name != "radius=8" || result.Cases[1].Name != "radius=8.5" {
		t.Fatalf("unexpected case names %v %v", result.Cases[0].Name, result.Cases[1].Name)
	}
	for _, c := range result.Cases {
		if c.Results["mean_keff"] != 0.99231 {
			t.Fatalf("case %s: unexpected mean_keff %v", c.Name, c.Results["mean_keff"])
		}
		if c.Results["sigma_keff"] != 0.00084 {
			t.Fatalf("case %s: unexpected sigma_keff %v", c.Name, c.Results["sigma_keff"])
		}
	}
	if _, err := os.Stat(result.CSVPath); err != nil {
		t.Fatalf("expected results table on disk: %v", err)
	}
}
