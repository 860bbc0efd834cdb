package core

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Severity ranks a check result.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityFatal   Severity = "fatal"
)

// Check names. Each appears once per report; the duplicate-row audit has
// one check per table.
const (
	CheckUniqueOrderID     = "unique_order_id"
	CheckMissingOrders     = "missing_orders"
	CheckMissingProducts   = "missing_products"
	CheckOrderNumber       = "non_positive_order_number"
	CheckAddToCartOrder    = "non_positive_add_to_cart_order"
	CheckDaysSincePrior    = "negative_days_since_prior_order"
	CheckDuplicateOrders   = "duplicate_orders"
	CheckDuplicateItems    = "duplicate_order_products"
	CheckDuplicateProducts = "duplicate_products"
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name        string   `json:"name" yaml:"name"`
	Table       string   `json:"table" yaml:"table"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Description string   `json:"description" yaml:"description"`
	Count       int      `json:"count" yaml:"count"`
	// SampleRows are 0-based positions of offending rows in the table as loaded.
	SampleRows []int `json:"sample_rows,omitempty" yaml:"sample_rows,omitempty"`
}

// ColumnNulls is the missing-value count of one column.
type ColumnNulls struct {
	Column string `json:"column" yaml:"column"`
	Count  int    `json:"count" yaml:"count"`
}

// TableNulls is the missing-value audit of one table, in loaded column order.
type TableNulls struct {
	Table   string        `json:"table" yaml:"table"`
	Rows    int           `json:"rows" yaml:"rows"`
	Columns []ColumnNulls `json:"columns" yaml:"columns"`
}

// Report collects everything a validation run observed.
type Report struct {
	RunID     uuid.UUID     `json:"run_id" yaml:"run_id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration"`
	Checks    []CheckResult `json:"checks" yaml:"checks"`
	Nulls     []TableNulls  `json:"nulls" yaml:"nulls"`
}

// NewReport starts an empty report with a fresh run ID.
func NewReport() *Report {
	return &Report{RunID: uuid.New(), StartedAt: time.Now()}
}

// Check returns the result named name.
func (r *Report) Check(name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// Count returns the violation count of the named check, 0 if it did not run.
func (r *Report) Count(name string) int {
	c, _ := r.Check(name)
	return c.Count
}

// Warnings returns the checks that found at least one violation.
func (r *Report) Warnings() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Fatal reports whether a hard invariant failed.
func (r *Report) Fatal() bool {
	for _, c := range r.Checks {
		if c.Severity == SeverityFatal && c.Count > 0 {
			return true
		}
	}
	return false
}

// NullsFor returns the missing-value audit of table.
func (r *Report) NullsFor(table string) (TableNulls, bool) {
	for _, n := range r.Nulls {
		if n.Table == table {
			return n, true
		}
	}
	return TableNulls{}, false
}

// WriteText renders the report for a terminal. Every check gets a line,
// including those with a zero count.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Validation run %s\n\n", r.RunID)
	fmt.Fprintln(tw, "CHECK\tTABLE\tSEVERITY\tCOUNT")
	for _, c := range r.Checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", c.Name, c.Table, c.Severity, c.Count)
	}

	for _, n := range r.Nulls {
		fmt.Fprintf(tw, "\nNull values in %s (%d rows):\n", n.Table, n.Rows)
		for _, c := range n.Columns {
			fmt.Fprintf(tw, "  %s\t%d\n", c.Column, c.Count)
		}
	}

	return tw.Flush()
}

// WriteYAML encodes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
