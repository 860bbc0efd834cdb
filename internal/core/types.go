package core

import (
	"strconv"
	"unique"

	"github.com/jackc/pgx/v5/pgtype"
)

// Category is an interned categorical label. The zero value is null.
//
// Two Category values are equal exactly when their labels are equal, so
// rows holding categories stay comparable and can be used as map keys.
type Category struct {
	h     unique.Handle[string]
	valid bool
}

// NewCategory interns label and returns it as a non-null Category.
func NewCategory(label string) Category {
	return Category{h: unique.Make(label), valid: true}
}

// Valid reports whether the category holds a label.
func (c Category) Valid() bool { return c.valid }

// String returns the label, or "" for a null category.
func (c Category) String() string {
	if !c.valid {
		return ""
	}
	return c.h.Value()
}

// Int interprets the label as an integer. Categorical encodings of numeric
// columns (day of week, hour of day, reordered) still compare numerically.
func (c Category) Int() (int64, bool) {
	if !c.valid {
		return 0, false
	}
	n, err := strconv.ParseInt(c.h.Value(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Order is one row of orders.csv.
type Order struct {
	OrderID             int32
	UserID              int32
	EvalSet             Category
	OrderNumber         int8
	OrderDOW            Category
	OrderHourOfDay      Category
	DaysSincePriorOrder pgtype.Float4 // null on a user's first order
}

// OrderItem is one row of order_products__prior.csv.
type OrderItem struct {
	OrderID        int32
	ProductID      int32
	AddToCartOrder int16
	Reordered      Category
}

// Product is one row of products.csv.
type Product struct {
	ProductID    int32
	ProductName  pgtype.Text
	AisleID      int16
	DepartmentID Category
}

// FieldType is the column-type hint applied when a cell is parsed.
type FieldType int

const (
	FieldInt32 FieldType = iota
	FieldInt16
	FieldInt8
	FieldFloat32
	FieldCategory
	FieldText
)

// FieldSpec describes one column of a table: how to parse a cell into a
// row, how to render it back, and how to tell whether it is missing.
type FieldSpec[R any] struct {
	Name     string
	Type     FieldType
	Required bool // column must exist in the header

	parse  func(row *R, cell string) error
	format func(row R) string
	isNull func(row R) bool // nil for non-nullable columns
}

// Nullable reports whether the column can hold missing values.
func (f FieldSpec[R]) Nullable() bool { return f.isNull != nil }

// Schema is the ordered set of columns a table may carry.
type Schema[R comparable] struct {
	Name   string
	Fields []FieldSpec[R]
}

// field returns the FieldSpec named name and its index.
func (s Schema[R]) field(name string) (FieldSpec[R], int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return f, i, true
		}
	}
	return FieldSpec[R]{}, -1, false
}

// Table is a fully materialized dataset. Columns records the header as it
// was loaded (indices into Schema.Fields) so output keeps the same layout.
type Table[R comparable] struct {
	Schema  Schema[R]
	Columns []int
	Rows    []R
}

// NewTable builds a table over rows using every schema column in order.
func NewTable[R comparable](schema Schema[R], rows []R) *Table[R] {
	cols := make([]int, len(schema.Fields))
	for i := range cols {
		cols[i] = i
	}
	return &Table[R]{Schema: schema, Columns: cols, Rows: rows}
}

// Name returns the table's schema name.
func (t *Table[R]) Name() string { return t.Schema.Name }

// Len returns the number of rows.
func (t *Table[R]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Header returns the column names in loaded order.
func (t *Table[R]) Header() []string {
	h := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		h[i] = t.Schema.Fields[c].Name
	}
	return h
}

// Dataset groups the three tables that are validated together.
type Dataset struct {
	Orders   *Table[Order]
	Items    *Table[OrderItem]
	Products *Table[Product]
}

// Paths locates the three files of a dataset on disk.
type Paths struct {
	Orders   string
	Items    string
	Products string
}
