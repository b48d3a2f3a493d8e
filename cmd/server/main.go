package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/auth"
	"github.com/prepkit/prepkit-backend/internal/config"
	"github.com/prepkit/prepkit-backend/internal/database"
	"github.com/prepkit/prepkit-backend/internal/events"
	"github.com/prepkit/prepkit-backend/internal/handler"
	"github.com/prepkit/prepkit-backend/internal/logger"
	"github.com/prepkit/prepkit-backend/internal/question"
	"github.com/prepkit/prepkit-backend/internal/router"
	"github.com/prepkit/prepkit-backend/internal/selector"
	"github.com/prepkit/prepkit-backend/internal/session"
	"github.com/prepkit/prepkit-backend/internal/store"
	"github.com/prepkit/prepkit-backend/internal/validator"
	"github.com/prepkit/prepkit-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("store", string(cfg.StoreBackend)).
		Str("log_level", cfg.LogLevel).
		Msg("Starting PrepKit Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Store ────────────────────────────────────────────────────
	// Every durable backend is wrapped in an in-memory fallback so a dead
	// medium degrades to best-effort caching instead of failing sessions.
	primary, closeStore := openStore(ctx, cfg, log)
	if closeStore != nil {
		defer closeStore()
	}
	st := store.NewFallback(primary, store.NewMemory(), log)

	// ─── Initialize Core ───────────────────────────────────────────────
	bus := events.NewBus()
	source := question.NewSource(st, log)
	registry := question.NewRegistry(st, log)
	sel := selector.New(nil, log, bus)
	persist := session.NewPersistence(st, nil, log)
	manager := session.NewManager(source, registry, sel, persist, bus, nil, log)

	tokens := auth.NewTokenService(cfg.JWTSecret, 24*time.Hour)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(tokens),
		Session:  handler.NewSessionHandler(manager),
		Question: handler.NewQuestionHandler(source),
		WS:       handler.NewWSHandler(bus, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(manager, cfg.AutosaveInterval, log)
	go autosaveWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(tokens, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop the autosave worker; it runs one final save pass on the way
	// out so no in-flight session loses progress.
	workerCancel()
	time.Sleep(time.Second)

	log.Info().Msg("Shutdown complete")
}

// openStore builds the configured primary store. Failures fall back to a
// pure in-memory store with a warning; the process keeps serving.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, func()) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		return store.NewMemory(), nil

	case config.StoreBackendRedis:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running in-memory only")
			return store.NewMemory(), nil
		}
		return store.NewRedis(rdb, "prepkit"), func() { _ = rdb.Close() }

	case config.StoreBackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL unavailable, running in-memory only")
			return store.NewMemory(), nil
		}
		return store.NewPostgres(pool), pool.Close

	default:
		if err := os.MkdirAll(filepath.Dir(cfg.BoltPath), 0o755); err != nil {
			log.Warn().Err(err).Msg("Cannot create data dir, running in-memory only")
			return store.NewMemory(), nil
		}
		bdb, err := store.OpenBolt(cfg.BoltPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.BoltPath).Msg("Bolt unavailable, running in-memory only")
			return store.NewMemory(), nil
		}
		return bdb, func() { _ = bdb.Close() }
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
