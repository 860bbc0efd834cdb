package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// WriteTable writes t as CSV in loaded column order and row order. No
// row-index column is added.
func WriteTable[R comparable](w io.Writer, t *Table[R]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range t.Columns {
			record[i] = t.Schema.Fields[c].format(row)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveFile writes t to path. The file is written next to its destination
// and renamed into place so a failed write never leaves a partial file.
func SaveFile[R comparable](path string, t *Table[R]) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("save %s: %w", t.Name(), err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("save %s: %w", t.Name(), err)
	}
	if err = WriteTable(tmp, t); err != nil {
		return fmt.Errorf("save %s: %w", t.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", t.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save %s: %w", t.Name(), err)
	}
	return nil
}

// SaveDataset writes all three tables to disk.
func SaveDataset(ctx context.Context, ds Dataset, p Paths, logger *slog.Logger) error {
	logger.Info("saving cleaned data")

	if err := SaveFile(p.Orders, ds.Orders); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := SaveFile(p.Items, ds.Items); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := SaveFile(p.Products, ds.Products); err != nil {
		return err
	}

	logger.Info("cleaned data saved", "orders", p.Orders, "order_products", p.Items, "products", p.Products)
	return nil
}
