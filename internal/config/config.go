package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DBPath            string
	ServerPort        string
	LogLevel          string
	WeatherBaseURL    string
	ReconcileInterval time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:         getEnv("DB_PATH", "boathouse.db"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		WeatherBaseURL: getEnv("WEATHER_BASE_URL", ""),
	}

	interval := getEnv("RECONCILE_INTERVAL", "")
	if interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			logger.Warn().Err(err).Str("value", interval).Msg("invalid RECONCILE_INTERVAL, ticker disabled")
		} else {
			cfg.ReconcileInterval = d
		}
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("weather_enabled", cfg.WeatherBaseURL != "").
		Dur("reconcile_interval", cfg.ReconcileInterval).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
