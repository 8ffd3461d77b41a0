package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/playperu/speedgame/internal/config"
	"github.com/playperu/speedgame/internal/database"
	"github.com/playperu/speedgame/internal/game"
	"github.com/playperu/speedgame/internal/handler/health"
	"github.com/playperu/speedgame/internal/migrations"
	"github.com/playperu/speedgame/internal/party"
	"github.com/playperu/speedgame/internal/server"
	"github.com/playperu/speedgame/internal/store"
	"github.com/playperu/speedgame/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// A missing .env file is fine, the environment wins anyway.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, "speedgame")
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// --- SQLite ---
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	st := store.New(db)
	if n, err := st.SeedThemes(ctx, cfg.SeedThemes); err != nil {
		return fmt.Errorf("seeding themes: %w", err)
	} else if n > 0 {
		logger.Info("themes seeded", "count", n)
	}

	// --- Game ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pub := party.NewPublisher(logger)
	repo := party.NewRepository(pub,
		party.WithShards(cfg.RegistryShards),
		party.WithPartyOptions(party.WithTickInterval(cfg.TimerTick)),
	)
	defer repo.RemoveAll()

	svc := game.NewService(logger, otel.Tracer("speedgame"), game.NewMetrics(reg, repo), repo, pub,
		game.Stores{Parties: st, Questions: st, Themes: st})

	if cfg.SeedQuestionsCSV != "" {
		if err := importQuestions(ctx, svc, cfg.SeedQuestionsCSV); err != nil {
			return err
		}
	}

	// --- HTTP Server ---
	var limiter *server.IPRateLimiter
	if cfg.RateLimit > 0 {
		limiter = server.NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	srv := server.New(cfg.HTTPAddr, logger, svc, limiter, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, map[string]health.Checker{
			"sqlite":     health.CheckFunc(db.PingContext),
			"migrations": health.CheckFunc(migrationsApplied(db)),
		}).Routes())
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func migrationsApplied(db *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := migrations.Version(ctx, db)
		return err
	}
}

func importQuestions(ctx context.Context, svc *game.Service, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening question sheet: %w", err)
	}
	defer f.Close()

	if _, err := svc.ImportQuestions(ctx, f); err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	return nil
}
