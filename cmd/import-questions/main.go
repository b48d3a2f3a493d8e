package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepkit/prepkit-backend/internal/config"
	"github.com/prepkit/prepkit-backend/internal/database"
	"github.com/prepkit/prepkit-backend/internal/logger"
	"github.com/prepkit/prepkit-backend/internal/model"
	"github.com/prepkit/prepkit-backend/internal/question"
	"github.com/prepkit/prepkit-backend/internal/store"
)

// Imports a question bank JSON file (an array of question records) into
// the configured store, so exams can run fully offline afterwards.
func main() {
	var file string
	flag.StringVar(&file, "file", "questions.json", "Path to question bank JSON file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Cannot read question bank file")
	}

	var questions []model.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		log.Fatal().Err(err).Msg("Question bank file is not a valid JSON array")
	}

	st, closeStore := openStore(ctx, cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	source := question.NewSource(st, log)
	stored, err := source.Import(ctx, questions)
	if err != nil {
		log.Fatal().Err(err).Int("stored", stored).Msg("Import failed")
	}

	log.Info().
		Int("stored", stored).
		Int("skipped", len(questions)-stored).
		Msg("Question bank imported")
}

// openStore builds the configured store; unlike the server, importing
// into a dead store is a hard failure.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, func()) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		log.Fatal().Msg("Cannot import into the memory backend")
		return nil, nil

	case config.StoreBackendRedis:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis unavailable")
		}
		return store.NewRedis(rdb, "prepkit"), func() { _ = rdb.Close() }

	case config.StoreBackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("PostgreSQL unavailable")
		}
		return store.NewPostgres(pool), pool.Close

	default:
		if err := os.MkdirAll(filepath.Dir(cfg.BoltPath), 0o755); err != nil {
			log.Fatal().Err(err).Msg("Cannot create data dir")
		}
		bdb, err := store.OpenBolt(cfg.BoltPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.BoltPath).Msg("Cannot open bolt database")
		}
		return bdb, func() { _ = bdb.Close() }
	}
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
