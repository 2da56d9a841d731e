package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/oncotimeline/oncotimeline/internal/config"
	"github.com/oncotimeline/oncotimeline/internal/platform/db"
	"github.com/oncotimeline/oncotimeline/internal/platform/seed"
	"github.com/oncotimeline/oncotimeline/internal/platform/telemetry"
	"github.com/oncotimeline/oncotimeline/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oncotimeline-server",
		Short: "Pediatric oncology treatment timeline API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run PostgreSQL migrations",
	}

	var schema, dir string
	addFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&schema, "schema", "", "Target schema (defaults to DB_SCHEMA)")
		c.Flags().StringVar(&dir, "dir", "", "Read migrations from this directory instead of the embedded set")
	}

	open := func(ctx context.Context) (*db.Migrator, func(), string, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, "", err
		}
		if cfg.DatabaseURL == "" {
			return nil, nil, "", fmt.Errorf("DATABASE_URL is required for migrations")
		}
		if schema == "" {
			schema = cfg.DBSchema
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, schema, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, "", err
		}
		var fsys fs.FS = migrations.FS
		if dir != "" {
			fsys = os.DirFS(dir)
		}
		return db.NewMigrator(pool, fsys), pool.Close, schema, nil
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			migrator, closeFn, schema, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			fmt.Printf("Running migrations on schema: %s\n", schema)
			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	addFlags(upCmd)
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			migrator, closeFn, schema, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.Modified {
						status = "modified"
					}
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	addFlags(statusCmd)
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference drugs, demo patients and knowledge articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env)
			if cmd.Flags().Changed("source") {
				cfg.SeedSource = source
			}

			ctx := cmd.Context()
			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.close()

			return runSeed(ctx, cfg, logger, b.services())
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Seed document: file path or s3://bucket/key (defaults to SEED_SOURCE, then the embedded document)")
	return cmd
}

func runSeed(ctx context.Context, cfg *config.Config, logger zerolog.Logger, svc seed.Services) error {
	src, err := seedSource(ctx, cfg, cfg.SeedSource)
	if err != nil {
		return err
	}
	if _, err := seed.New(svc, logger).Load(ctx, src); err != nil {
		return fmt.Errorf("seed from %s: %w", src, err)
	}
	return nil
}

func runServer() error {
	// Config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Logger
	logger := newLogger(cfg.Env)

	// Store
	ctx := context.Background()
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer b.close()

	svc := b.services()
	if cfg.SeedOnStart {
		if err := runSeed(ctx, cfg, logger, svc); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed reference content")
		}
	}

	var metrics *telemetry.Metrics
	if cfg.MetricsEnabled {
		metrics = telemetry.New()
	}
	e := newServer(cfg, logger, b, svc, metrics)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("driver", b.driver).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
