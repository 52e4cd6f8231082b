package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"chess-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	ChessUsername string
	WebhookURL    string
	StatePath     string
	DBPath        string
	LogLevel      string

	// LeagueThresholds maps league code to the trophy count needed to
	// advance. Codes without an entry never trigger a deadline alert.
	LeagueThresholds map[string]int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ChessUsername:    getEnv("CHESS_USERNAME", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		StatePath:        getEnv("STATE_PATH", "tracker_state.json"),
		DBPath:           getEnv("DB_PATH", "chess.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LeagueThresholds: parseLeagueThresholds(os.Getenv("LEAGUE_THRESHOLDS"), logger),
	}

	if cfg.ChessUsername == "" {
		return nil, fmt.Errorf("CHESS_USERNAME is required")
	}

	if cfg.WebhookURL == "" {
		logger.Warn().Msg("WEBHOOK_URL is not set, notifications will be skipped")
	}

	logger.Info().
		Str("chess_username", cfg.ChessUsername).
		Str("state_path", cfg.StatePath).
		Str("db_path", cfg.DBPath).
		Str("log_level", cfg.LogLevel).
		Bool("webhook_configured", cfg.WebhookURL != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseLeagueThresholds overlays "code=points,code=points" pairs from the
// environment on top of the built-in table. Malformed pairs are skipped.
func parseLeagueThresholds(raw string, logger zerolog.Logger) map[string]int {
	thresholds := make(map[string]int, len(constants.DefaultLeagueThresholds))
	for code, points := range constants.DefaultLeagueThresholds {
		thresholds[code] = points
	}

	if raw == "" {
		return thresholds
	}

	for _, pair := range strings.Split(raw, ",") {
		code, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			logger.Warn().Str("pair", pair).Msg("skipping malformed league threshold override")
			continue
		}
		points, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			logger.Warn().Str("pair", pair).Msg("skipping non-numeric league threshold override")
			continue
		}
		thresholds[strings.ToLower(strings.TrimSpace(code))] = points
	}

	return thresholds
}
