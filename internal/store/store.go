// Package store persists validated datasets to PostgreSQL.
//
// Each run replaces the three tables wholesale inside one transaction:
// TRUNCATE followed by a COPY of every row. Categorical columns are stored
// as text, nullable values as SQL NULL.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/ordersan/internal/core"
)

// DBTX is the subset of pgx used by the store.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Options configures the connection pool and table naming.
type Options struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	TablePrefix     string
	Timeout         time.Duration
}

// Store writes datasets into PostgreSQL.
type Store struct {
	pool    *pgxpool.Pool
	tables  tableNames
	timeout time.Duration
	logger  *slog.Logger
}

type tableNames struct {
	orders, items, products string
}

func namesFor(prefix string) tableNames {
	return tableNames{
		orders:   prefix + core.TableOrders,
		items:    prefix + core.TableItems,
		products: prefix + core.TableProducts,
	}
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	cfg.MinConns = int32(opts.MinConns)
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, tables: namesFor(opts.TablePrefix), timeout: opts.Timeout, logger: logger}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the three tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return ensureSchema(ctx, s.pool, s.tables)
}

// Replace truncates the three tables and loads ds into them in a single
// transaction. It implements core.Sink.
func (s *Store) Replace(ctx context.Context, ds core.Dataset) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return replace(ctx, tx, s.tables, ds, s.logger)
	})
}

func ensureSchema(ctx context.Context, db DBTX, t tableNames) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			order_id integer NOT NULL,
			user_id integer NOT NULL,
			eval_set text,
			order_number smallint NOT NULL,
			order_dow text,
			order_hour_of_day text,
			days_since_prior_order real
		)`, pgx.Identifier{t.orders}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			order_id integer NOT NULL,
			product_id integer NOT NULL,
			add_to_cart_order smallint NOT NULL,
			reordered text
		)`, pgx.Identifier{t.items}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			product_id integer NOT NULL,
			product_name text,
			aisle_id smallint NOT NULL,
			department_id text
		)`, pgx.Identifier{t.products}.Sanitize()),
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func replace(ctx context.Context, db DBTX, t tableNames, ds core.Dataset, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE %s, %s, %s",
		pgx.Identifier{t.orders}.Sanitize(),
		pgx.Identifier{t.items}.Sanitize(),
		pgx.Identifier{t.products}.Sanitize(),
	)); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	n, err := db.CopyFrom(ctx, pgx.Identifier{t.orders}, OrderColumns,
		pgx.CopyFromSlice(len(ds.Orders.Rows), func(i int) ([]any, error) {
			return OrderCopyRow(ds.Orders.Rows[i]), nil
		}))
	if err != nil {
		return fmt.Errorf("copy %s: %w", t.orders, err)
	}
	logger.Debug("copied rows", "table", t.orders, "rows", n)

	n, err = db.CopyFrom(ctx, pgx.Identifier{t.items}, ItemColumns,
		pgx.CopyFromSlice(len(ds.Items.Rows), func(i int) ([]any, error) {
			return ItemCopyRow(ds.Items.Rows[i]), nil
		}))
	if err != nil {
		return fmt.Errorf("copy %s: %w", t.items, err)
	}
	logger.Debug("copied rows", "table", t.items, "rows", n)

	n, err = db.CopyFrom(ctx, pgx.Identifier{t.products}, ProductColumns,
		pgx.CopyFromSlice(len(ds.Products.Rows), func(i int) ([]any, error) {
			return ProductCopyRow(ds.Products.Rows[i]), nil
		}))
	if err != nil {
		return fmt.Errorf("copy %s: %w", t.products, err)
	}
	logger.Debug("copied rows", "table", t.products, "rows", n)

	return nil
}

// Column lists for COPY. Each CopyRow function returns values in this order.
var (
	OrderColumns   = []string{"order_id", "user_id", "eval_set", "order_number", "order_dow", "order_hour_of_day", "days_since_prior_order"}
	ItemColumns    = []string{"order_id", "product_id", "add_to_cart_order", "reordered"}
	ProductColumns = []string{"product_id", "product_name", "aisle_id", "department_id"}
)

// OrderCopyRow converts an order to a COPY row.
func OrderCopyRow(o core.Order) []any {
	return []any{
		o.OrderID,
		o.UserID,
		categoryText(o.EvalSet),
		int16(o.OrderNumber),
		categoryText(o.OrderDOW),
		categoryText(o.OrderHourOfDay),
		o.DaysSincePriorOrder,
	}
}

// ItemCopyRow converts an order item to a COPY row.
func ItemCopyRow(it core.OrderItem) []any {
	return []any{it.OrderID, it.ProductID, it.AddToCartOrder, categoryText(it.Reordered)}
}

// ProductCopyRow converts a product to a COPY row.
func ProductCopyRow(p core.Product) []any {
	return []any{p.ProductID, p.ProductName, p.AisleID, categoryText(p.DepartmentID)}
}

func categoryText(c core.Category) pgtype.Text {
	return pgtype.Text{String: c.String(), Valid: c.Valid()}
}
