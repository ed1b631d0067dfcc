// pgload copies trusted-zone NDJSON objects into Postgres so analysts can
// query the trusted data relationally.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/smartstream-data/refinery/internal/config"
	"github.com/smartstream-data/refinery/internal/envelope"
	"github.com/smartstream-data/refinery/internal/logging"
	"github.com/smartstream-data/refinery/internal/objectstore"
	"github.com/smartstream-data/refinery/internal/pgload"
)

var (
	configPath     string
	dsn            string
	routeArg       string
	targetTable    string
	migrationsPath string
	skipMigrations bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pgload",
		Short: "Load trusted-zone NDJSON objects into Postgres",
		Long: `pgload reads every trusted object under a route's prefix and bulk-copies
the records into a Postgres table (route, source_key, record JSONB).
Migrations for the target table run first unless --skip-migrations is set.`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string (required)")
	rootCmd.Flags().StringVar(&routeArg, "route", "", "route to load as domain/table, e.g. finance/transactions (required)")
	rootCmd.Flags().StringVar(&targetTable, "target", "trusted_records", "target Postgres table")
	rootCmd.Flags().StringVar(&migrationsPath, "migrations", "migrations", "path to migration files")
	rootCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "skip running migrations")
	_ = rootCmd.MarkFlagRequired("dsn")
	_ = rootCmd.MarkFlagRequired("route")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("pgload"))
	logging.SetDefault(logger)

	route, err := parseRoute(routeArg)
	if err != nil {
		return err
	}

	if !skipMigrations {
		m, err := migrate.New("file://"+migrationsPath, dsn)
		if err != nil {
			return fmt.Errorf("initialize migrations: %w", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("Migrations applied")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping Postgres: %w", err)
	}

	store, err := objectstore.NewMinIO(objectstore.MinIOConfig{
		Endpoint:  cfg.Store.Endpoint,
		AccessKey: cfg.Store.AccessKey,
		SecretKey: cfg.Store.SecretKey,
		Region:    cfg.Store.Region,
		UseSSL:    cfg.Store.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("connect to object store: %w", err)
	}

	loader := pgload.New(store, pool, logger)
	rows, err := loader.LoadRoute(ctx, cfg.Lake.Bucket, cfg.Lake.TrustedPrefix, route, targetTable)
	if err != nil {
		return err
	}

	slog.Info("Load complete",
		slog.String("route", route.String()),
		slog.Int64("rows", rows),
	)
	return nil
}

func parseRoute(s string) (envelope.Route, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return envelope.Route{}, fmt.Errorf("invalid route %q: expected domain/table", s)
	}
	return envelope.Route{Domain: parts[0], Table: parts[1]}, nil
}
