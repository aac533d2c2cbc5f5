package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "peer_review/internal/adapters/http_server"
	"peer_review/internal/adapters/observability"
	redisad "peer_review/internal/adapters/redis"
	"peer_review/internal/adapters/rosterhttp"
	"peer_review/internal/app"
	"peer_review/internal/domain"
	"peer_review/internal/roster"
	"peer_review/internal/session"
	"peer_review/internal/shared"
	"peer_review/internal/storage/csvstore"
	mysqlrepo "peer_review/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// review store
	store, closeStore := openStore(cfg)
	defer closeStore()
	if err := store.InitializeIfAbsent(ctx); err != nil {
		log.Fatal().Err(err).Msg("review store init failed")
	}
	log.Info().Str("backend", cfg.StoreBackend).Msg("review store ok")

	// employee directory, loaded once
	dir, err := roster.Load(ctx, rosterSource(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("roster load failed")
	}
	log.Info().Int("employees", dir.Len()).Msg("roster loaded")

	// session tokens
	var sessions domain.SessionStore
	switch cfg.SessionBackend {
	case "redis":
		rs := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.SessionTTL)
		if err := rs.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("redis ping failed")
		}
		defer rs.Close()
		sessions = rs
	default:
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	settings := app.Settings{Categories: cfg.Categories, SubmissionCap: cfg.SubmissionCap}
	survey := app.NewSurveyService(store, sessions, dir, settings)
	admin := app.NewAdminService(store, app.Credentials{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash}, settings)

	// http
	srv := server.New(server.Options{
		RateLimitRPS:  cfg.RateLimitRPS,
		SecureCookies: cfg.AppEnv != "dev" && cfg.AppEnv != "development",
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Survey: survey, Admin: admin})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Int("cap", cfg.SubmissionCap).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func openStore(cfg shared.Config) (domain.ReviewStore, func()) {
	if cfg.StoreBackend != "mysql" {
		return csvstore.New(cfg.ReviewFile, cfg.Categories), func() {}
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	return mysqlrepo.New(db), func() { _ = db.Close() }
}

func rosterSource(cfg shared.Config) domain.RosterSource {
	if cfg.RosterURL == "" {
		return roster.FileSource{Path: cfg.RosterFile}
	}
	c, err := rosterhttp.New(cfg.RosterURL, cfg.RosterRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize roster client")
	}
	return c
}
