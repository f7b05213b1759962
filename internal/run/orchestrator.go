// Package run owns the lifecycle of all cases for one study: dispatch
// concurrency, retry, timeout, cancellation, and aggregation into the final
// results table.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Funz/fz-go/internal/calculator"
	"github.com/Funz/fz-go/internal/extract"
	"github.com/Funz/fz-go/internal/policy"
	"github.com/Funz/fz-go/internal/study"
	"github.com/Funz/fz-go/internal/template"
	"github.com/Funz/fz-go/pkg/config"
	"github.com/Funz/fz-go/pkg/logger"
)

// ResultsFile is written into the results root once every case is terminal
const ResultsFile = "results.csv"

// ReasonCalculatorUnavailable marks cases that could not be dispatched
// because every calculator's breaker was open.
const ReasonCalculatorUnavailable = "CalculatorUnavailable"

// Orchestrator dispatches the cases of one study across its calculators.
type Orchestrator struct {
	model    *config.Model
	cfg      *config.Study
	retry    policy.RetryPolicy
	breaker  policy.BreakerPolicy
	adapters []calculator.Adapter

	pollInterval time.Duration
}

// New builds an orchestrator for one study. The adapter set was selected by
// the Model x Calculator compatibility check; nothing here re-checks per case.
func New(model *config.Model, adapters []calculator.Adapter, cfg *config.Study) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultStudy()
	}
	return &Orchestrator{
		model:        model,
		cfg:          cfg,
		retry:        policy.NewRetryPolicyFromConfig(cfg.Retries),
		breaker:      policy.NewBreakerPolicyFromConfig(cfg.Breaker),
		adapters:     adapters,
		pollInterval: 20 * time.Millisecond,
	}
}

// Run drives every case to a terminal state and returns the results table,
// one row per requested case in expander order. Cancelling ctx marks queued
// and in-flight cases Failed(Cancelled); already-terminal cases keep their
// state. The table is also written to results.csv under root.
func (o *Orchestrator) Run(ctx context.Context, tmpl *template.Template, cases []*study.Case, root string) (*study.Table, error) {
	live := o.probeAdapters(ctx)
	if len(live) == 0 {
		return nil, fmt.Errorf("%w: no execution target reachable", calculator.ErrUnavailable)
	}

	outputs := make(map[string]struct{}, len(o.model.Output))
	for name := range o.model.Output {
		outputs[name] = struct{}{}
	}
	var listVars []string
	if len(cases) > 0 {
		listVars = cases[0].ListVars
	}
	table := study.NewTable(listVars, outputs, len(cases))

	// Cases enter the queue in expander order and may complete in any
	// order; rows are recorded by index so the table order never changes.
	queue := make(chan *study.Case, len(cases))
	for _, c := range cases {
		queue <- c
	}
	close(queue)

	concurrency := o.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	logger.Info("study dispatch starting",
		"model", o.model.ID, "cases", len(cases),
		"calculators", len(live), "concurrency", concurrency)

	var wg sync.WaitGroup
	for _, ad := range live {
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func(ad calculator.Adapter) {
				defer wg.Done()
				for c := range queue {
					o.runCase(ctx, ad, live, tmpl, c, root)
					o.record(table, c)
				}
			}(ad)
		}
	}
	wg.Wait()

	logger.Info("study finished", "model", o.model.ID,
		"cases", table.Len(), "succeeded", table.SucceededCount())

	if err := os.MkdirAll(root, 0o755); err != nil {
		return table, fmt.Errorf("failed to create results root %s: %w", root, err)
	}
	if err := table.WriteCSVFile(filepath.Join(root, ResultsFile)); err != nil {
		return table, err
	}
	return table, nil
}

// probeAdapters drops unreachable execution targets before dispatch
func (o *Orchestrator) probeAdapters(ctx context.Context) []calculator.Adapter {
	live := make([]calculator.Adapter, 0, len(o.adapters))
	for _, ad := range o.adapters {
		if err := ad.Probe(ctx); err != nil {
			logger.Warn("calculator unreachable, excluded from study",
				"calculator", ad.Label(), "error", err)
			continue
		}
		live = append(live, ad)
	}
	return live
}

// runCase drives one case to a terminal state, retrying per policy. Each
// retry re-enters Pending with a fresh attempt-suffixed directory.
func (o *Orchestrator) runCase(ctx context.Context, primary calculator.Adapter, all []calculator.Adapter, tmpl *template.Template, c *study.Case, root string) {
	if ctx.Err() != nil {
		c.Fail(study.ReasonCancelled)
		return
	}

	for {
		ad, ok := o.pickAdapter(primary, all)
		if !ok {
			c.Fail(ReasonCalculatorUnavailable)
			return
		}

		err := o.attempt(ctx, ad, tmpl, c, root)
		if c.Status == study.StatusDone {
			o.breaker.RecordSuccess(ad.Label())
			return
		}
		o.breaker.RecordFailure(ad.Label())

		var cerr *study.CompileError
		if errors.As(err, &cerr) || c.Reason == study.ReasonCancelled || ctx.Err() != nil {
			return
		}
		if !o.retry.ShouldRetry(c.Attempt, err) {
			return
		}

		delay := o.retry.GetBackoffDuration(c.Attempt + 1)
		logger.Info("retrying case", "case", c.Name,
			"attempt", c.Attempt+1, "backoff", delay.String(), "cause", c.Reason)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if err := c.Retry(); err != nil {
			logger.Error("cannot re-enter pending", "case", c.Name, "error", err)
			return
		}
	}
}

// pickAdapter prefers the worker's own calculator and falls back to another
// whose breaker still admits cases.
func (o *Orchestrator) pickAdapter(primary calculator.Adapter, all []calculator.Adapter) (calculator.Adapter, bool) {
	if o.breaker.Allow(primary.Label()) {
		return primary, true
	}
	for _, ad := range all {
		if ad != primary && o.breaker.Allow(ad.Label()) {
			logger.Warn("calculator breaker open, falling back",
				"from", primary.Label(), "to", ad.Label())
			return ad, true
		}
	}
	return nil, false
}

// attempt runs one compile-submit-poll-extract cycle. It returns a non-nil
// error whenever the case did not reach Done.
func (o *Orchestrator) attempt(ctx context.Context, ad calculator.Adapter, tmpl *template.Template, c *study.Case, root string) error {
	if err := study.Compile(tmpl, o.model, c, root); err != nil {
		logger.Error("compile failed", "case", c.DirName(), "error", err)
		c.Fail("CompileError")
		return err
	}
	if err := c.TransitionTo(study.StatusCompiled); err != nil {
		return err
	}

	caseCtx := ctx
	cancel := func() {}
	if timeout := o.cfg.GetTimeout(); timeout > 0 {
		caseCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	h, err := ad.Submit(caseCtx, calculator.Submission{Name: c.DirName(), Dir: c.Dir})
	if err != nil {
		c.Fail("SubmitFailed")
		return err
	}
	if err := c.TransitionTo(study.StatusRunning); err != nil {
		return err
	}
	logger.Debug("case running", "case", c.DirName(), "calculator", ad.Label())

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-caseCtx.Done():
			o.terminate(ad, h)
			if errors.Is(caseCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				c.TransitionTo(study.StatusTimedOut)
				return fmt.Errorf("case %s timed out after attempt %d", c.Name, c.Attempt)
			}
			c.Fail(study.ReasonCancelled)
			return fmt.Errorf("case %s cancelled", c.Name)
		case <-ticker.C:
		}

		status, err := ad.Poll(caseCtx, h)
		if err != nil {
			c.Fail("PollFailed")
			return err
		}
		switch status.State {
		case calculator.StateRunning:
		case calculator.StateFailed:
			c.Fail(status.Reason)
			return fmt.Errorf("case %s failed: %s", c.Name, status.Reason)
		case calculator.StateDone:
			return o.finish(c, status)
		default:
			c.Fail("PollFailed")
			return fmt.Errorf("adapter reported unknown state %q", status.State)
		}
	}
}

// terminate best-effort kills a submitted case, detached from the expired
// case context.
func (o *Orchestrator) terminate(ad calculator.Adapter, h calculator.Handle) {
	killCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ad.Cancel(killCtx, h); err != nil {
		logger.Warn("failed to terminate case", "calculator", ad.Label(), "error", err)
	}
}

// finish applies the extraction rules to a finished case
func (o *Orchestrator) finish(c *study.Case, status calculator.Status) error {
	if status.ExitCode != 0 {
		c.Fail(fmt.Sprintf("ExitStatus(%d)", status.ExitCode))
		return fmt.Errorf("case %s: launcher exit status %d", c.Name, status.ExitCode)
	}

	c.Results = extract.Apply(status.Output, o.model.Output)
	if extract.AllMissing(c.Results) {
		c.Fail(study.ReasonNoResultsExtracted)
		return fmt.Errorf("case %s: every declared result is missing", c.Name)
	}
	return c.TransitionTo(study.StatusDone)
}

// record fills the case's row; rows are index-addressed so concurrent
// completions never contend.
func (o *Orchestrator) record(table *study.Table, c *study.Case) {
	row := study.Row{
		Name:     c.Name,
		Values:   c.SubstitutionValues(),
		Results:  c.Results,
		Status:   c.Status,
		Reason:   c.Reason,
		Attempts: c.Attempt,
		Dir:      c.Dir,
	}
	if err := table.SetRow(c.Index, row); err != nil {
		logger.Error("failed to record case row", "case", c.Name, "error", err)
	}
}
