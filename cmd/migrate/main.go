// Command migrate copies review rows from a CSV store file into the MySQL
// store, skipping ids that are already present.
package main

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"peer_review/internal/adapters/observability"
	"peer_review/internal/domain"
	"peer_review/internal/shared"
	"peer_review/internal/storage/csvstore"
	mysqlrepo "peer_review/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	source := cfg.MigrateSource
	if source == "" {
		source = cfg.ReviewFile
	}
	if _, err := os.Stat(source); err != nil {
		log.Fatal().Err(err).Str("source", source).Msg("source file not readable")
	}
	log.Info().
		Str("source", source).
		Int("workers", cfg.Workers).
		Msg("migration starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	dst := mysqlrepo.New(db)
	if err := dst.InitializeIfAbsent(ctx); err != nil {
		log.Fatal().Err(err).Msg("create table failed")
	}

	recs, err := csvstore.New(source, cfg.Categories).LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("read source failed")
	}
	existing, err := dst.LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("read destination failed")
	}
	have := make(map[string]bool, len(existing))
	for _, r := range existing {
		have[r.ID] = true
	}

	var copied, skipped, failed int64
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for _, r := range recs {
		if have[r.ID] {
			skipped++
			continue
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(r domain.ReviewRecord) {
			defer wg.Done()
			defer sem.Release(1)

			if err := dst.Append(ctx, r); err != nil {
				atomic.AddInt64(&failed, 1)
				log.Warn().Str("id", r.ID).Err(err).Msg("copy failed")
				return
			}
			atomic.AddInt64(&copied, 1)
		}(r)
	}

	wg.Wait()
	log.Info().
		Int64("copied", copied).
		Int64("skipped", skipped).
		Int64("failed", failed).
		Msg("migration completed")
	if failed > 0 {
		os.Exit(1)
	}
}
