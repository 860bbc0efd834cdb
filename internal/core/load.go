package core

// load.go reads the three CSV inputs into typed tables.
//
// Loading happens at two levels:
//  1. Header: every required column present, no column the schema does not know
//  2. Cells: each cell parsed with its column's type hint
//
// Errors carry the table name, the 1-based line number and the column.

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("empty file")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnknownColumn is returned when the header has a column the schema lacks.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrInvalidCell is returned when a cell cannot be parsed with its type hint.
	ErrInvalidCell = errors.New("invalid cell")
)

// CellError identifies the cell that failed to parse.
type CellError struct {
	Table  string
	Line   int
	Column string
	Type   FieldType
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s line %d column %q (%s): %v", e.Table, e.Line, e.Column, fieldTypeName(e.Type), e.Err)
}

func (e *CellError) Is(target error) bool { return target == ErrInvalidCell }

func (e *CellError) Unwrap() error { return e.Err }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark, common in files saved by
// spreadsheet tools.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// ValidateHeaders checks the header against the schema and returns, for each
// header position, the index of the matching schema field.
func ValidateHeaders[R comparable](header []string, s Schema[R]) ([]int, error) {
	idx := MakeHeaderIndex(header)
	cols := make([]int, len(header))

	var unknown []string
	for i, h := range header {
		_, fi, ok := s.field(strings.TrimSpace(h))
		if !ok {
			unknown = append(unknown, h)
			continue
		}
		cols[i] = fi
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", s.Name, ErrUnknownColumn, strings.Join(unknown, ", "))
	}

	var missing []string
	for _, f := range s.Fields {
		if _, ok := idx[f.Name]; !ok && f.Required {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", s.Name, ErrMissingColumn, strings.Join(missing, ", "))
	}
	if len(idx) != len(header) {
		return nil, fmt.Errorf("%s: duplicate column in header", s.Name)
	}

	return cols, nil
}

// LoadTable reads a CSV stream into a table using schema.
func LoadTable[R comparable](r io.Reader, s Schema[R]) (*Table[R], error) {
	cr := csv.NewReader(skipBOM(r))
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", s.Name, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: invalid csv: %w", s.Name, err)
	}

	cols, err := ValidateHeaders(header, s)
	if err != nil {
		return nil, err
	}

	t := &Table[R]{Schema: s, Columns: cols}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: invalid csv: %w", s.Name, err)
		}

		line, _ := cr.FieldPos(0)
		var row R
		for i, cell := range record {
			f := s.Fields[cols[i]]
			if err := f.parse(&row, cell); err != nil {
				return nil, &CellError{Table: s.Name, Line: line, Column: f.Name, Type: f.Type, Err: err}
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// LoadFile opens path and loads it with schema.
func LoadFile[R comparable](path string, s Schema[R]) (*Table[R], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Name, err)
	}
	defer f.Close()

	return LoadTable(f, s)
}

// LoadDataset loads all three tables from disk.
func LoadDataset(ctx context.Context, p Paths, logger *slog.Logger) (Dataset, error) {
	var ds Dataset
	var err error

	logger.Info("loading data", "orders", p.Orders, "order_products", p.Items, "products", p.Products)

	if ds.Orders, err = LoadFile(p.Orders, OrderSchema); err != nil {
		return Dataset{}, err
	}
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}
	if ds.Items, err = LoadFile(p.Items, ItemSchema); err != nil {
		return Dataset{}, err
	}
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}
	if ds.Products, err = LoadFile(p.Products, ProductSchema); err != nil {
		return Dataset{}, err
	}

	logger.Info("data loaded",
		"orders", ds.Orders.Len(),
		"order_products", ds.Items.Len(),
		"products", ds.Products.Len(),
	)
	return ds, nil
}
