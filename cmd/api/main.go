// Package main is the entry point for the Itinera API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"golang.org/x/sync/errgroup"

	"github.com/itinera/backend/internal/auth"
	"github.com/itinera/backend/internal/config"
	"github.com/itinera/backend/internal/handler"
	"github.com/itinera/backend/internal/logging"
	"github.com/itinera/backend/internal/middleware"
	"github.com/itinera/backend/internal/recommender"
	"github.com/itinera/backend/internal/repo"
	"github.com/itinera/backend/internal/service"
	"github.com/itinera/backend/migrations"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// --- Logger -----------------------------------------------------------
	logger, logCloser := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ----------------------------------------------------------
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	// --- Services ---------------------------------------------------------
	engine := recommender.NewClient(cfg.RecommenderURL, cfg.RecommenderTimeout, logger)
	srv := handler.NewServer(
		service.NewItineraryService(store.itineraries),
		service.NewRecommendationService(engine, store.preferences, logger),
		service.NewPreferenceService(store.preferences, nil),
		logger,
	)

	mw := handler.Middlewares{
		Authenticate: middleware.NewAuthenticator(auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)),
	}
	if cfg.RecommendRatePerMinute > 0 {
		mw.LimitRecommend = middleware.NewRateLimiter(cfg.RecommendRatePerMinute, cfg.RecommendBurst).Handler
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit. CORS sits before authentication so preflight
	// requests never need a token.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", srv.Routes(mw))

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout leaves room for a full recommendation engine round trip.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RecommenderTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", httpSrv.Addr, "storage", cfg.StorageDriver)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		// Give in-flight requests up to 15 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// storage bundles the repositories selected by STORAGE_DRIVER.
type storage struct {
	itineraries repo.ItineraryRepo
	preferences repo.PreferenceRepo
	close       func()
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return storage{
			itineraries: repo.NewMemoryItineraryRepo(),
			preferences: repo.NewMemoryPreferenceRepo(),
			close:       func() {},
		}, nil
	}

	if cfg.MigrateOnStart {
		if err := migrateUp(ctx, cfg.DatabaseURL, logger); err != nil {
			return storage{}, err
		}
	}

	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return storage{}, fmt.Errorf("create database pool: %w", err)
	}
	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return storage{}, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connection established")

	return storage{
		itineraries: repo.NewItineraryRepo(pool),
		preferences: repo.NewPreferenceRepo(pool),
		close:       pool.Close,
	}, nil
}

// migrateUp applies pending migrations through a short-lived database/sql
// handle, since goose works on *sql.DB rather than a pgx pool.
func migrateUp(ctx context.Context, dsn string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("migrate: open: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrate: create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: up: %w", err)
	}
	for _, res := range results {
		logger.Info("migration applied", "version", res.Source.Version, "duration", res.Duration)
	}
	return nil
}
