package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PolicyThresholds holds the confidence cutoffs for one alert policy.
type PolicyThresholds struct {
	Low      float64 // minimum confidence for any alert
	High     float64 // severity 4 cutoff
	Critical float64 // severity 5 cutoff
	Block    float64 // auto-block cutoff; <= 0 disables auto-blocking
}

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	JWTSecret    string

	ClassifierURL     string
	ClassifierTimeout time.Duration

	IngestPolicy   PolicyThresholds
	AnalysisPolicy PolicyThresholds

	BlockDuration time.Duration

	IngestRateLimit float64 // requests per second per client
	IngestRateBurst int

	GeoIPDatabase string

	NotifyURLs []string // shoutrrr URLs for critical alert push

	SimulatorEnabled  bool
	SimulatorSchedule string

	BlockSweepSchedule string
}

// Load reads env vars and falls back to defaults so the server can boot with
// zero configuration. A .env file in the working directory is honored when
// present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:  getEnv("NSC_ENV", "development"),
		HTTPPort:     getEnv("NSC_HTTP_PORT", "8080"),
		DatabasePath: getEnv("NSC_DB_PATH", filepath.Join("data", "netsentinel.db")),
		JWTSecret:    getEnv("NSC_JWT_SECRET", ""),

		ClassifierURL:     getEnv("NSC_CLASSIFIER_URL", "http://localhost:5000"),
		ClassifierTimeout: getDuration("NSC_CLASSIFIER_TIMEOUT", 10*time.Second),

		IngestPolicy: PolicyThresholds{
			Low:      getFloat("NSC_POLICY_LOW", 0.50),
			High:     getFloat("NSC_POLICY_HIGH", 0.70),
			Critical: getFloat("NSC_POLICY_CRITICAL", 0.90),
			Block:    getFloat("NSC_POLICY_BLOCK", 0.70),
		},
		AnalysisPolicy: PolicyThresholds{
			Low:      getFloat("NSC_ANALYSIS_LOW", 0.85),
			High:     getFloat("NSC_ANALYSIS_HIGH", 0.85),
			Critical: getFloat("NSC_ANALYSIS_CRITICAL", 0.95),
			Block:    0, // the analysis path never auto-blocks
		},

		BlockDuration: getDuration("NSC_BLOCK_DURATION", 24*time.Hour),

		IngestRateLimit: getFloat("NSC_INGEST_RATE", 50),
		IngestRateBurst: getInt("NSC_INGEST_BURST", 100),

		GeoIPDatabase: getEnv("NSC_GEOIP_DB", ""),

		NotifyURLs: splitList(getEnv("NSC_NOTIFY_URLS", "")),

		SimulatorEnabled:  getBool("NSC_SIMULATOR", false),
		SimulatorSchedule: getEnv("NSC_SIMULATOR_SCHEDULE", "@every 10s"),

		BlockSweepSchedule: getEnv("NSC_BLOCK_SWEEP_SCHEDULE", "@every 1m"),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
