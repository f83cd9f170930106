package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	ServerPort string

	StoreDriver          string
	MongoURI             string
	MongoDBName          string
	MongoUsersCollection string
	MongoTasksCollection string

	JWTSecret        string
	TokenTTL         time.Duration
	AdminInviteToken string

	RedisURL          string
	DashboardCacheTTL time.Duration

	LogFile  string
	LogLevel string

	CORSOrigins []string
	TraceLog    bool
}

// LoadDotEnv reads the given .env files into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load builds a Config from lookup, which is os.LookupEnv in production.
func Load(lookup func(string) (string, bool)) (*Config, error) {
	env := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		ServerPort:           env("SERVER_PORT", "8000"),
		StoreDriver:          strings.ToLower(env("STORE_DRIVER", StoreMongo)),
		MongoURI:             env("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:          env("MONGO_DB_NAME", "task_manager"),
		MongoUsersCollection: env("MONGO_USERS_COLLECTION", "users"),
		MongoTasksCollection: env("MONGO_TASKS_COLLECTION", "tasks"),
		JWTSecret:            env("JWT_SECRET", ""),
		AdminInviteToken:     env("ADMIN_INVITE_TOKEN", ""),
		RedisURL:             env("REDIS_URL", ""),
		LogFile:              env("LOG_FILE", "logs/task-manager.log"),
		LogLevel:             env("LOG_LEVEL", "info"),
	}

	var errs []error

	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be a number, got %q", cfg.ServerPort))
	}
	if cfg.StoreDriver != StoreMongo && cfg.StoreDriver != StoreMemory {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, cfg.StoreDriver))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	var err error
	if cfg.TokenTTL, err = parseDuration(env("TOKEN_TTL", "168h")); err != nil {
		errs = append(errs, fmt.Errorf("TOKEN_TTL: %w", err))
	}
	if cfg.DashboardCacheTTL, err = parseDuration(env("DASHBOARD_CACHE_TTL", "30s")); err != nil {
		errs = append(errs, fmt.Errorf("DASHBOARD_CACHE_TTL: %w", err))
	}
	if cfg.TraceLog, err = strconv.ParseBool(env("TRACE_LOG", "false")); err != nil {
		errs = append(errs, fmt.Errorf("TRACE_LOG must be a boolean: %w", err))
	}

	for _, origin := range strings.Split(env("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func parseDuration(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", v)
	}
	return d, nil
}

func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
