package core

// validation.go is the sanitization pass over a loaded dataset.
//
// Checks run in a fixed order:
//  1. order_id uniqueness (hard: a violation stops the pass)
//  2. order items referencing missing orders
//  3. order items referencing missing products
//  4. per-column null counts for every table
//  5. range checks on order_number, add_to_cart_order, days_since_prior_order
//  6. exact-duplicate rows per table
//
// Tables are only read. Soft findings go into the Report and the log; the
// only error Validate returns is a *HardInvariantViolation.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultSampleSize is the number of offending rows kept per check.
const DefaultSampleSize = 5

// ErrDuplicateKey matches a primary-key uniqueness violation.
var ErrDuplicateKey = errors.New("duplicate primary key")

// HardInvariantViolation is returned when a condition that downstream
// joins depend on does not hold.
type HardInvariantViolation struct {
	Invariant  string
	Table      string
	Column     string
	Count      int     // rows repeating an earlier key
	SampleKeys []int64 // distinct repeated keys
}

func (e *HardInvariantViolation) Error() string {
	keys := make([]string, len(e.SampleKeys))
	for i, k := range e.SampleKeys {
		keys[i] = fmt.Sprint(k)
	}
	return fmt.Sprintf("hard invariant violated (%s): %s in %s is not unique: %d duplicated rows, keys %s",
		e.Invariant, e.Column, e.Table, e.Count, strings.Join(keys, ", "))
}

func (e *HardInvariantViolation) Is(target error) bool { return target == ErrDuplicateKey }

// Validator runs the sanitization checks.
type Validator struct {
	logger     *slog.Logger
	sampleSize int
}

// NewValidator creates a Validator. A nil logger uses slog.Default and a
// non-positive sampleSize uses DefaultSampleSize.
func NewValidator(logger *slog.Logger, sampleSize int) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Validator{logger: logger, sampleSize: sampleSize}
}

// Validate inspects ds and returns it unchanged along with the report. On a
// hard invariant violation the report holds only the failed check and the
// error is a *HardInvariantViolation.
func (v *Validator) Validate(ds Dataset) (Dataset, *Report, error) {
	rep := NewReport()
	defer func() { rep.Duration = time.Since(rep.StartedAt) }()

	v.logger.Info("starting data sanitization and validation", "run_id", rep.RunID)

	// Consistency
	orderKeys, err := v.checkUniqueOrders(ds.Orders, rep)
	if err != nil {
		v.logger.Error("validation halted", "error", err)
		return ds, rep, err
	}

	missingOrders := v.sample()
	for i, it := range ds.Items.Rows {
		if _, ok := orderKeys[it.OrderID]; !ok {
			missingOrders.add(i)
		}
	}
	v.record(rep, missingOrders.result(CheckMissingOrders, TableItems, SeverityWarning,
		"order items have an order_id not present in the orders table"))

	productKeys := make(map[int32]struct{}, ds.Products.Len())
	for _, p := range ds.Products.Rows {
		productKeys[p.ProductID] = struct{}{}
	}
	missingProducts := v.sample()
	for i, it := range ds.Items.Rows {
		if _, ok := productKeys[it.ProductID]; !ok {
			missingProducts.add(i)
		}
	}
	v.record(rep, missingProducts.result(CheckMissingProducts, TableItems, SeverityWarning,
		"order items have a product_id not present in the products table"))

	// Nulls
	rep.Nulls = []TableNulls{
		countNulls(ds.Orders),
		countNulls(ds.Items),
		countNulls(ds.Products),
	}
	for _, n := range rep.Nulls {
		args := make([]any, 0, 2*len(n.Columns)+2)
		args = append(args, "table", n.Table)
		for _, c := range n.Columns {
			args = append(args, c.Column, c.Count)
		}
		v.logger.Info("null values", args...)
	}

	// Ranges
	badOrderNumber := v.sample()
	badDaysSince := v.sample()
	for i, o := range ds.Orders.Rows {
		if o.OrderNumber <= 0 {
			badOrderNumber.add(i)
		}
		// Null marks a first order and is not a negative value.
		if o.DaysSincePriorOrder.Valid && o.DaysSincePriorOrder.Float32 < 0 {
			badDaysSince.add(i)
		}
	}
	badAddToCart := v.sample()
	for i, it := range ds.Items.Rows {
		if it.AddToCartOrder <= 0 {
			badAddToCart.add(i)
		}
	}
	v.record(rep, badOrderNumber.result(CheckOrderNumber, TableOrders, SeverityWarning,
		"orders have a non-positive order_number"))
	v.record(rep, badAddToCart.result(CheckAddToCartOrder, TableItems, SeverityWarning,
		"order products have a non-positive add_to_cart_order"))
	v.record(rep, badDaysSince.result(CheckDaysSincePrior, TableOrders, SeverityWarning,
		"orders have a negative days_since_prior_order"))

	// Duplicates
	v.record(rep, duplicateRows(v.sample(), ds.Orders.Rows).result(CheckDuplicateOrders, TableOrders, SeverityInfo,
		"orders rows are exact duplicates of an earlier row"))
	v.record(rep, duplicateRows(v.sample(), ds.Items.Rows).result(CheckDuplicateItems, TableItems, SeverityInfo,
		"order products rows are exact duplicates of an earlier row"))
	v.record(rep, duplicateRows(v.sample(), ds.Products.Rows).result(CheckDuplicateProducts, TableProducts, SeverityInfo,
		"products rows are exact duplicates of an earlier row"))

	v.logger.Info("data sanitization complete", "run_id", rep.RunID, "warnings", len(rep.Warnings()))
	return ds, rep, nil
}

// checkUniqueOrders returns the order key set, or a violation if any
// order_id repeats.
func (v *Validator) checkUniqueOrders(orders *Table[Order], rep *Report) (map[int32]struct{}, error) {
	keys := make(map[int32]struct{}, orders.Len())
	dups := v.sample()
	var sampleKeys []int64
	seenDup := make(map[int32]bool)

	for i, o := range orders.Rows {
		if _, ok := keys[o.OrderID]; !ok {
			keys[o.OrderID] = struct{}{}
			continue
		}
		dups.add(i)
		if !seenDup[o.OrderID] && len(sampleKeys) < v.sampleSize {
			sampleKeys = append(sampleKeys, int64(o.OrderID))
		}
		seenDup[o.OrderID] = true
	}

	if dups.count == 0 {
		rep.Checks = append(rep.Checks, dups.result(CheckUniqueOrderID, TableOrders, SeverityFatal,
			"order_id is unique in the orders table"))
		return keys, nil
	}

	rep.Checks = append(rep.Checks, dups.result(CheckUniqueOrderID, TableOrders, SeverityFatal,
		"order_id in orders is not unique"))
	return nil, &HardInvariantViolation{
		Invariant:  CheckUniqueOrderID,
		Table:      TableOrders,
		Column:     "order_id",
		Count:      dups.count,
		SampleKeys: sampleKeys,
	}
}

// record appends c to the report and logs it. Non-zero counts log at warn.
func (v *Validator) record(rep *Report, c CheckResult) {
	rep.Checks = append(rep.Checks, c)

	level := slog.LevelInfo
	if c.Count > 0 && c.Severity == SeverityWarning {
		level = slog.LevelWarn
	}
	v.logger.Log(context.Background(), level, c.Description, "check", c.Name, "table", c.Table, "count", c.Count)
}

func (v *Validator) sample() *sampler { return &sampler{limit: v.sampleSize} }

// sampler counts offending rows and keeps the first few positions.
type sampler struct {
	limit int
	count int
	rows  []int
}

func (s *sampler) add(row int) {
	s.count++
	if len(s.rows) < s.limit {
		s.rows = append(s.rows, row)
	}
}

func (s *sampler) result(name, table string, sev Severity, desc string) CheckResult {
	return CheckResult{
		Name:        name,
		Table:       table,
		Severity:    sev,
		Description: desc,
		Count:       s.count,
		SampleRows:  s.rows,
	}
}

// duplicateRows counts rows equal to an earlier row. The first occurrence is
// not counted, so appending one copy of an existing row adds exactly one.
func duplicateRows[R comparable](s *sampler, rows []R) *sampler {
	seen := make(map[R]struct{}, len(rows))
	for i, r := range rows {
		if _, ok := seen[r]; ok {
			s.add(i)
			continue
		}
		seen[r] = struct{}{}
	}
	return s
}

// countNulls audits missing values per column in loaded order.
func countNulls[R comparable](t *Table[R]) TableNulls {
	out := TableNulls{Table: t.Name(), Rows: t.Len(), Columns: make([]ColumnNulls, len(t.Columns))}
	for i, c := range t.Columns {
		f := t.Schema.Fields[c]
		out.Columns[i].Column = f.Name
		if !f.Nullable() {
			continue
		}
		for _, row := range t.Rows {
			if f.isNull(row) {
				out.Columns[i].Count++
			}
		}
	}
	return out
}
