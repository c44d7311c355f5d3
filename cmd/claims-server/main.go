package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jayawardhanm/jay-claimsub-ai/internal/config"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/domain/claims"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/platform/advisory"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/platform/auth"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/platform/backend"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/platform/db"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/platform/middleware"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/platform/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "claims-server",
		Short: "Insurance claim risk scoring and decisioning service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(processCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the claims API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				state := "pending"
				appliedAt := ""
				if s.Applied {
					state = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format(time.RFC3339)
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, state, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// processCmd runs one batch pass over all pending claims and exits. Useful
// for cron-style reprocessing without the HTTP server.
func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Process all pending claims once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg)
			ctx := context.Background()

			source, sink, _, pool, err := buildStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			proc := buildProcessor(cfg, source, sink, buildScorer(cfg, logger), logger)
			result, err := proc.ProcessPending(ctx)
			if err != nil {
				return fmt.Errorf("process pending claims: %w", err)
			}

			fmt.Printf("Processed %d claim(s), %d failure(s).\n", len(result.Succeeded), len(result.Failed))
			for _, f := range result.Failed {
				fmt.Printf("  %s: %s\n", f.ClaimID, f.Error)
			}
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

// buildStore creates the configured claim store. For the postgres backend the
// returned pool is non-nil and owned by the caller.
func buildStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (claims.DataSource, claims.Sink, db.Pinger, *pgxpool.Pool, error) {
	switch cfg.StoreBackend {
	case "backend":
		client := backend.NewClient(cfg.BackendURL, cfg.BackendAPIKey)
		logger.Info().Str("url", cfg.BackendURL).Msg("using remote backend claim store")
		return client, client, client, nil, nil
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		st := store.New(pool)
		logger.Info().Msg("connected to database")
		return st, st, st, pool, nil
	}
}

func buildScorer(cfg *config.Config, logger zerolog.Logger) claims.Scorer {
	if cfg.ScorerStrategy == "advisory" {
		logger.Info().Str("url", cfg.AdvisoryURL).Msg("using advisory scorer")
		return advisory.NewClient(cfg.AdvisoryURL, cfg.Thresholds(), logger,
			advisory.WithTimeout(time.Duration(cfg.AdvisoryTimeoutSeconds)*time.Second))
	}
	return claims.NewRuleScorer(cfg.Thresholds())
}

func buildProcessor(cfg *config.Config, source claims.DataSource, sink claims.Sink, scorer claims.Scorer, logger zerolog.Logger) *claims.Processor {
	engine := claims.NewEngine(cfg.Thresholds())
	return claims.NewProcessor(source, sink, scorer, engine, logger,
		claims.WithConcurrency(cfg.ProcessConcurrency))
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	source, sink, pinger, pool, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize claim store")
	}
	if pool != nil {
		defer pool.Close()
	}

	scorer := buildScorer(cfg, logger)
	proc := buildProcessor(cfg, source, sink, scorer, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.RequestTimeout(time.Duration(cfg.RequestTimeoutSeconds) * time.Second))

	// Auth middleware
	switch cfg.ResolvedAuthMode() {
	case "development":
		e.Use(auth.DevAuthMiddleware(logger))
	case "jwt":
		e.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	default:
		e.Use(auth.APIKeyMiddleware(cfg.APIKey))
	}

	// API group with rate limiting
	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	handler := claims.NewHandler(proc)
	handler.RegisterRoutes(apiV1)

	// Health endpoints
	e.GET("/health", func(c echo.Context) error {
		body := map[string]string{"status": "healthy"}
		if adv, ok := scorer.(*advisory.Client); ok {
			if err := adv.Ping(c.Request().Context()); err != nil {
				body["advisory"] = "unreachable"
			} else {
				body["advisory"] = "ok"
			}
		}
		return c.JSON(http.StatusOK, body)
	})
	e.GET("/health/db", db.HealthHandler(pinger, pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
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
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
