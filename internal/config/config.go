package config

import (
	"os"
	"strconv"

	"lottery-proxy/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	// DBPath is the SQLite file path. Empty disables the whole
	// sync/ingest subsystem; the passthrough proxy keeps working.
	DBPath string

	ServerPort string
	LogLevel   string

	// InternalKey guards the non-public endpoints. Empty disables the
	// guard entirely.
	InternalKey string

	// RelayBaseURL optionally fronts the xoso188 API with a relay for
	// deployments whose egress IP is blocked.
	RelayBaseURL string

	BackfillDays int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", "lottery.db"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		InternalKey:  getEnv("INTERNAL_KEY", ""),
		RelayBaseURL: getEnv("RELAY_BASE_URL", ""),
		BackfillDays: getEnvInt("BACKFILL_DAYS", constants.DefaultBackfillDays),
	}

	if cfg.DBPath == "" {
		logger.Warn().Msg("DB_PATH empty: store disabled, running proxy-only")
	}
	if cfg.InternalKey == "" {
		logger.Warn().Msg("INTERNAL_KEY not set: internal endpoints are unguarded")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("relay_base_url", cfg.RelayBaseURL).
		Int("backfill_days", cfg.BackfillDays).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
