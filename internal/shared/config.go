package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"peer_review/internal/domain"
	"peer_review/internal/storage/csvstore"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	StoreBackend string // csv|mysql
	ReviewFile   string
	MySQLDSN     string

	RosterFile string
	RosterURL  string
	RosterRPS  int

	SessionBackend string // memory|redis
	SessionTTL     time.Duration
	RedisAddr      string
	RedisDB        int
	RedisPass      string

	AdminUsername     string
	AdminPasswordHash string

	Categories    domain.CategorySet
	SubmissionCap int
	RateLimitRPS  int
	Workers       int
	MigrateSource string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		LogLevel:          env("LOG_LEVEL", "info"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ""),
		StoreBackend:      strings.ToLower(env("STORE_BACKEND", "csv")),
		ReviewFile:        env("REVIEW_FILE", "reviews.csv"),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/peer_review?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RosterFile:        env("ROSTER_FILE", "employee_list.csv"),
		RosterURL:         env("ROSTER_URL", ""),
		RosterRPS:         atoi("ROSTER_RPS", 5),
		SessionBackend:    strings.ToLower(env("SESSION_BACKEND", "memory")),
		SessionTTL:        time.Duration(atoi("SESSION_TTL_SECONDS", 86400)) * time.Second,
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisDB:           atoi("REDIS_DB", 0),
		RedisPass:         env("REDIS_PASSWORD", ""),
		AdminUsername:     env("ADMIN_USERNAME", ""),
		AdminPasswordHash: env("ADMIN_PASSWORD_HASH", ""),
		Categories:        categories(os.Getenv("REVIEW_CATEGORIES")),
		SubmissionCap:     atoi("SUBMISSION_CAP", 10),
		RateLimitRPS:      atoi("RATE_LIMIT_RPS", 0),
		Workers:           atoi("MIGRATE_WORKERS", 4),
		MigrateSource:     env("MIGRATE_SOURCE", ""),
	}
	if c.AdminUsername == "" || c.AdminPasswordHash == "" {
		log.Warn().Msg("ADMIN_USERNAME or ADMIN_PASSWORD_HASH is empty; admin portal will reject all logins")
	} else if !strings.HasPrefix(c.AdminPasswordHash, "$2") {
		log.Warn().Msg("ADMIN_PASSWORD_HASH is not a bcrypt hash; single quote it in .env so $ is not expanded")
	}
	if c.SubmissionCap <= 0 {
		c.SubmissionCap = 10
	}
	return c
}

// categories parses a comma separated list, falling back to the defaults.
// Names that collide with fixed store columns are rejected.
func categories(raw string) domain.CategorySet {
	if strings.TrimSpace(raw) == "" {
		return append(domain.CategorySet(nil), domain.DefaultCategories...)
	}
	var out domain.CategorySet
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if csvstore.Reserved(p) {
			log.Warn().Str("category", p).Msg("REVIEW_CATEGORIES entry collides with a store column; ignored")
			continue
		}
		if p != "" && !out.Contains(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append(domain.CategorySet(nil), domain.DefaultCategories...)
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
