package fz

import (
	"path/filepath"

	"github.com/Funz/fz-go/internal/run"
	"github.com/Funz/fz-go/internal/study"
)

// Case statuses as they appear in a Result
const (
	StatusDone     = string(study.StatusDone)
	StatusFailed   = string(study.StatusFailed)
	StatusTimedOut = string(study.StatusTimedOut)
)

// Failure reasons recorded in a Result
const (
	ReasonCancelled          = study.ReasonCancelled
	ReasonNoResultsExtracted = study.ReasonNoResultsExtracted
)

// CaseResult is one results-table row
type CaseResult struct {
	Name     string
	Values   map[string]string // variable name -> substituted text
	Results  map[string]any    // output name -> float64 or string; nil when missing
	Status   string
	Reason   string
	Attempts int
	Dir      string
}

// Result is the aggregated outcome of one study: exactly one row per
// requested case, in expander order.
type Result struct {
	ID        string   // study identifier, also carried in the run's log lines
	Variables []string // list-valued variables, discovery order
	Outputs   []string // declared output names, sorted
	Cases     []CaseResult
	CSVPath   string
}

// Succeeded returns the number of Done cases
func (r *Result) Succeeded() int {
	n := 0
	for _, c := range r.Cases {
		if c.Status == StatusDone {
			n++
		}
	}
	return n
}

func fromTable(table *study.Table, root string) *Result {
	res := &Result{
		Variables: table.Variables,
		Outputs:   table.Outputs,
		Cases:     make([]CaseResult, 0, table.Len()),
		CSVPath:   filepath.Join(root, run.ResultsFile),
	}
	for _, row := range table.Rows() {
		values := make(map[string]any, len(row.Results))
		for name, r := range row.Results {
			if r.Missing {
				values[name] = nil
				continue
			}
			values[name] = r.Value
		}
		res.Cases = append(res.Cases, CaseResult{
			Name:     row.Name,
			Values:   row.Values,
			Results:  values,
			Status:   string(row.Status),
			Reason:   row.Reason,
			Attempts: row.Attempts,
			Dir:      row.Dir,
		})
	}
	return res
}
