package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Funz/fz-go/pkg/config"
	"github.com/Funz/fz-go/pkg/fz"
	"github.com/Funz/fz-go/pkg/logger"
)

const usageText = `usage: fz <command> [flags]

commands:
  parse     discover the variables a template references
  compile   write one compiled case directory per variable combination
  run       run the full study and aggregate the results table

run 'fz <command> -h' for the flags of each command
`

// studyFlags are the flags shared by every subcommand
type studyFlags struct {
	template  string
	modelID   string
	modelsDir string
	logLevel  string
	vars      map[string]any
}

func addStudyFlags(fs *flag.FlagSet, f *studyFlags) {
	f.vars = make(map[string]any)
	fs.StringVar(&f.template, "template", "", "path to the solver input template")
	fs.StringVar(&f.modelID, "model", "", "model id, resolved in the models directory")
	fs.StringVar(&f.modelsDir, "models-dir", config.DefaultModelDir, "directory holding model descriptors")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.Func("var", "variable values as name=v1,v2,... (repeatable)", func(s string) error {
		name, spec, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return fmt.Errorf("expected name=value[,value...], got %q", s)
		}
		parts := strings.Split(spec, ",")
		if len(parts) == 1 {
			f.vars[name] = parts[0]
			return nil
		}
		values := make([]any, len(parts))
		for i, p := range parts {
			values[i] = p
		}
		f.vars[name] = values
		return nil
	})
}

func (f *studyFlags) loadModel() (*config.Model, error) {
	if f.template == "" {
		return nil, fmt.Errorf("-template is required")
	}
	if f.modelID == "" {
		return nil, fmt.Errorf("-model is required")
	}
	return config.FindModel(f.modelsDir, f.modelID)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "parse":
		err = cmdParse(os.Args[2:])
	case "compile":
		err = cmdCompile(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usageText)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usageText)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fz:", err)
		os.Exit(1)
	}
}

func cmdParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	var f studyFlags
	addStudyFlags(fs, &f)
	fs.Parse(args)

	logger.SetDefault(logger.NewText(f.logLevel, os.Stderr))
	m, err := f.loadModel()
	if err != nil {
		return err
	}

	names, err := fz.DiscoverFile(f.template, m)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func cmdCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	var f studyFlags
	addStudyFlags(fs, &f)
	output := fs.String("output", "compiled", "directory receiving the case directories")
	fs.Parse(args)

	logger.SetDefault(logger.NewText(f.logLevel, os.Stderr))
	m, err := f.loadModel()
	if err != nil {
		return err
	}

	dirs, err := fz.Compile(f.template, m, f.vars, *output)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		fmt.Println(dir)
	}
	return nil
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var f studyFlags
	addStudyFlags(fs, &f)
	calcDir := fs.String("calculators-dir", config.DefaultCalculatorDir, "directory holding calculator descriptors")
	studyPath := fs.String("study", "", "study configuration file (yaml)")
	results := fs.String("results", "", "results root (defaults to the study config, then 'results')")
	fs.Parse(args)

	logger.SetDefault(logger.NewText(f.logLevel, os.Stderr))
	m, err := f.loadModel()
	if err != nil {
		return err
	}
	calcs, err := config.LoadCalculators(*calcDir)
	if err != nil {
		return err
	}

	cfg := config.DefaultStudy()
	if *studyPath != "" {
		cfg, err = config.LoadStudy(*studyPath)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := fz.Run(ctx, fz.RunRequest{
		TemplatePath: f.template,
		Model:        m,
		Variables:    f.vars,
		Calculators:  calcs,
		Study:        cfg,
		ResultsRoot:  *results,
	})
	if result != nil {
		printResult(result)
	}
	return runErr
}

func printResult(res *fz.Result) {
	for _, c := range res.Cases {
		status := c.Status
		if c.Reason != "" {
			status += "(" + c.Reason + ")"
		}
		fields := []string{c.Name, status}
		for _, out := range res.Outputs {
			v := c.Results[out]
			if v == nil {
				fields = append(fields, out+"=<missing>")
				continue
			}
			fields = append(fields, fmt.Sprintf("%s=%v", out, v))
		}
		fmt.Println(strings.Join(fields, "  "))
	}
	fmt.Printf("%d/%d cases succeeded, table written to %s\n",
		res.Succeeded(), len(res.Cases), res.CSVPath)
}
