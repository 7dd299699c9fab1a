// Package config loads operational settings from the environment.
// Everything has a default; the package never fails, it falls back.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// FetchConfig holds remote download behavior.
type FetchConfig struct {
	Timeout   time.Duration
	RelayURL  string // CORS relay prefix; empty disables the fallback
	UserAgent string
}

// IngestConfig bounds PDF rasterization. A zero limit disables it; a
// zero RenderScale means the 1.5x default.
type IngestConfig struct {
	MaxPages    int
	MaxFileMB   int
	RenderScale float64 // page raster scale over the 72dpi baseline
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Fetch   FetchConfig
	Ingest  IngestConfig
}

// LoadEnv loads .env files into the process environment when present.
// Variables already set in the environment win; a missing file is not
// an error.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/collage.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_collage",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Fetch = FetchConfig{
		Timeout:   parseDuration(getEnv("FETCH_TIMEOUT", "30s"), 30*time.Second),
		RelayURL:  getEnv("FETCH_RELAY_URL", "https://api.allorigins.win/raw?url="),
		UserAgent: getEnv("FETCH_USER_AGENT", "pdf-marketing-image-app/1.0"),
	}

	cfg.Ingest = IngestConfig{
		MaxPages:    parseInt(getEnv("INGEST_MAX_PAGES", "200"), 200),
		MaxFileMB:   parseInt(getEnv("INGEST_MAX_FILE_MB", "100"), 100),
		RenderScale: parseFloat(getEnv("INGEST_RENDER_SCALE", "1.5"), 1.5),
	}

	return cfg
}

// Helpers

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
