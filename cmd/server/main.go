package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/geoquest/routequest/internal/ai"
	"github.com/geoquest/routequest/internal/config"
	"github.com/geoquest/routequest/internal/database"
	"github.com/geoquest/routequest/internal/migrations"
	"github.com/geoquest/routequest/internal/server"
	"github.com/geoquest/routequest/internal/worker"
)

const providerStatusTTL = 5 * time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	if err := server.SeedDemo(ctx, logger, db); err != nil {
		return fmt.Errorf("seeding demo data: %w", err)
	}

	store := server.NewSQLiteStore(db)

	// --- AI providers ---
	openai := ai.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	statusCache := ai.NewStatusCache([]ai.Provider{openai}, providerStatusTTL)

	// --- Task runner ---
	runner := worker.NewRunner(db, logger, cfg.WorkerPollInterval)
	runner.Register("question_generation", worker.NewQuestionGenerationHandler(openai, store))

	// --- HTTP server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:          store,
		DB:             db,
		Superuser:      cfg.SuperuserEmail,
		BaseURL:        cfg.BaseURL,
		ProviderStatus: statusCache,
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

	g.Go(func() error {
		return runner.Run(gctx)
	})

	return g.Wait()
}
