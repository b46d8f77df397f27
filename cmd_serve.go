package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/cowsbulls/assets"
	"github.com/robalobadob/cowsbulls/internal/auth"
	"github.com/robalobadob/cowsbulls/internal/config"
	"github.com/robalobadob/cowsbulls/internal/daily"
	"github.com/robalobadob/cowsbulls/internal/database"
	"github.com/robalobadob/cowsbulls/internal/httpserver"
	"github.com/robalobadob/cowsbulls/internal/metrics"
	"github.com/robalobadob/cowsbulls/internal/session"
	"github.com/robalobadob/cowsbulls/internal/store"
)

func newServeCmd() *cobra.Command {
	var port, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default PORT or 5175)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default DB_PATH)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	if cfg.Production && cfg.InsecureSecret() {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if cfg.InsecureSecret() {
		log.Warn().Msg("using development JWT secret")
	}

	db, err := database.OpenAndMigrate(cfg.DBPath, assets.Migrations())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	results := daily.NewStore(db)
	users := auth.NewService(db, 0)
	sink := session.NewBreakerSink(
		session.ResultSink{Results: results, Stats: auth.AccountStats{Users: users}},
		session.BreakerSettings{FailureThreshold: cfg.SinkFailureThreshold, OpenTimeout: cfg.SinkOpenTimeout},
	)
	mgr := session.NewManager(store.NewMemoryStore(),
		session.WithMaxAttempts(cfg.MaxAttempts),
		session.WithMetrics(rec),
		session.WithSink(sink),
	)
	go mgr.RunJanitor(ctx, 10*time.Minute, cfg.SessionTTL)

	srv := httpserver.New(httpserver.Deps{
		Config:   cfg,
		Sessions: mgr,
		Results:  results,
		Users:    users,
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Metrics:  metrics.Handler(reg),
	})

	log.Info().
		Str("port", cfg.Port).
		Str("db", cfg.DBPath).
		Str("date", daily.DateKey(time.Now())).
		Int("maxAttempts", cfg.MaxAttempts).
		Msg("starting cowsbulls server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
