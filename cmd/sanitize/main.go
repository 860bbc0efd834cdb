// Command sanitize validates the orders, order_products and products CSV
// files, prints a report and writes clean copies. A duplicated order_id
// stops the run before anything is written.
//
// Configuration comes from the environment (and a .env file if present);
// the defaults reproduce the stock paths under ../data.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ordersan/internal/config"
	"github.com/JonMunkholm/ordersan/internal/core"
	"github.com/JonMunkholm/ordersan/internal/logging"
	"github.com/JonMunkholm/ordersan/internal/store"
)

// cfg is populated by the root command's PersistentPreRunE.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "sanitize",
	Short:         "Validate the orders dataset and write clean copies",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Overload lets a local .env win over the shell, as in serve deployments.
		if err := godotenv.Overload(); err == nil {
			slog.Debug("loaded .env file")
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		slog.Debug("configuration loaded", "config", cfg.String())
		return nil
	},
	RunE: runSanitize,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("sanitize failed", "error", err, "code", core.MapError(err).Code)
		stop()
		os.Exit(1)
	}
}

func runSanitize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	opts := core.PipelineOptions{
		Input: core.Paths{
			Orders:   cfg.Data.OrdersPath,
			Items:    cfg.Data.ItemsPath,
			Products: cfg.Data.ProductsPath,
		},
		Output: core.Paths{
			Orders:   cfg.Data.CleanOrdersPath,
			Items:    cfg.Data.CleanItemsPath,
			Products: cfg.Data.CleanProductsPath,
		},
		ReportPath: cfg.Report.Path,
		SampleSize: cfg.Sampling.SampleSize,
		Logger:     logger,
		Stdout:     cmd.OutOrStdout(),
	}

	if cfg.Database.Enabled() {
		st, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Sink = st
	}

	if _, err := core.NewPipeline(opts).Run(ctx); err != nil {
		return err
	}
	logger.Info("clean files written",
		"orders", opts.Output.Orders,
		"order_products", opts.Output.Items,
		"products", opts.Output.Products,
	)
	return nil
}

func openStore(ctx context.Context, db config.DatabaseConfig, logger *slog.Logger) (*store.Store, error) {
	st, err := store.Open(ctx, store.Options{
		URL:             db.URL,
		MaxConns:        db.MaxConns,
		MinConns:        db.MinConns,
		MaxConnLifetime: db.MaxConnLifetime,
		TablePrefix:     db.TablePrefix,
		Timeout:         db.Timeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
