package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	RPCURL                string
	Network               string
	NetworksFile          string
	DatabaseURL           string
	HTTPPort              string
	RPCRateLimit          float64
	RPCRetryMax           int
	RPCRetryBaseDelay     time.Duration
	ReadCacheTTL          time.Duration
	SnapshotInterval      time.Duration
	MarketInterval        time.Duration
	Accounts              []string
	AdminAPIKey           string
	ExportXLSXPath        string
	GoogleSheetsID        string
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		RPCURL:                envOrDefaultWarn("RPC_URL", ""),
		Network:               envOrDefault("NETWORK", "mainnet"),
		NetworksFile:          envOrDefault("NETWORKS_FILE", ""),
		DatabaseURL:           envOrDefault("DATABASE_URL", ""),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		RPCRateLimit:          envOrDefaultFloat("RPC_RATE_LIMIT", 10),
		RPCRetryMax:           envOrDefaultInt("RPC_RETRY_MAX", 3),
		RPCRetryBaseDelay:     envOrDefaultDuration("RPC_RETRY_BASE_DELAY", 500*time.Millisecond),
		ReadCacheTTL:          envOrDefaultDuration("READ_CACHE_TTL", 15*time.Second),
		SnapshotInterval:      envOrDefaultInterval("SNAPSHOT_INTERVAL", 24*time.Hour),
		MarketInterval:        envOrDefaultInterval("MARKET_REFRESH_INTERVAL", 5*time.Minute),
		Accounts:              envList("ACCOUNTS"),
		AdminAPIKey:           envOrDefault("ADMIN_API_KEY", ""),
		ExportXLSXPath:        envOrDefault("EXPORT_XLSX_PATH", ""),
		GoogleSheetsID:        envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

// LoadDotEnv copies variables from a .env file into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid number env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return f
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envOrDefaultInterval is envOrDefaultDuration for ticker periods, which must be positive.
func envOrDefaultInterval(key string, defaultVal time.Duration) time.Duration {
	d := envOrDefaultDuration(key, defaultVal)
	if d <= 0 {
		slog.Warn("non-positive interval env var, using default", "key", key, "value", d, "default", defaultVal)
		return defaultVal
	}
	return d
}

// envList splits a comma-separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
