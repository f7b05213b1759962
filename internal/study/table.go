package study

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Funz/fz-go/internal/extract"
)

// Row is one results-table row: the case's list-variable assignment, every
// declared output (or missing marker), and the final status.
type Row struct {
	Name     string
	Values   map[string]string // variable name -> substituted text
	Results  map[string]extract.Result
	Status   Status
	Reason   string
	Attempts int
	Dir      string
}

// Table is the aggregated result of one study: exactly one row per requested
// case, in expander order. The row slice is sized at creation and filled by
// index, so completion order never affects presentation order.
type Table struct {
	Variables []string // list-valued variables, discovery order
	Outputs   []string // declared output names, sorted
	rows      []Row
	filled    []bool
}

// NewTable allocates a table for n cases
func NewTable(listVars []string, outputs map[string]struct{}, n int) *Table {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Table{
		Variables: append([]string(nil), listVars...),
		Outputs:   names,
		rows:      make([]Row, n),
		filled:    make([]bool, n),
	}
}

// SetRow records the terminal state of case i
func (t *Table) SetRow(i int, row Row) error {
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("row index %d out of range (table has %d rows)", i, len(t.rows))
	}
	t.rows[i] = row
	t.filled[i] = true
	return nil
}

// Rows returns all rows in case order
func (t *Table) Rows() []Row {
	return t.rows
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Complete reports whether every case has reached a terminal state
func (t *Table) Complete() bool {
	for _, ok := range t.filled {
		if !ok {
			return false
		}
	}
	return true
}

// SucceededCount returns the number of Done rows
func (t *Table) SucceededCount() int {
	n := 0
	for _, row := range t.rows {
		if row.Status == StatusDone {
			n++
		}
	}
	return n
}

// WriteCSV renders the table: case name, one column per list variable, one
// column per declared output, then status and reason.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"case"}, t.Variables...)
	header = append(header, t.Outputs...)
	header = append(header, "status", "reason")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range t.rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Name)
		for _, name := range t.Variables {
			record = append(record, row.Values[name])
		}
		for _, name := range t.Outputs {
			record = append(record, row.Results[name].String())
		}
		record = append(record, string(row.Status), row.Reason)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to path
func (t *Table) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file %s: %w", path, err)
	}
	defer f.Close()
	if err := t.WriteCSV(f); err != nil {
		return fmt.Errorf("failed to write results file %s: %w", path, err)
	}
	return nil
}
