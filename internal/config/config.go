package config

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = "off"
	defaultBatchSize   = 256
)

// Config is the process configuration, read from the environment with an
// optional .env file.
type Config struct {
	DatabaseURL   string
	HTTPAddr      string
	MetricsAddr   string
	ScanWorkers   int
	ScanBatchSize int
	// ScanInterval enables periodic background rescans; zero disables them.
	ScanInterval time.Duration

	AWSDiscoveryEnabled bool
	AWSRegion           string
	AWSSourceName       string
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadRequireDB is for commands that cannot fall back to the in-memory
// store, such as migrations.
func LoadRequireDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		HTTPAddr:            getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:         getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		ScanWorkers:         getenvIntDefault("SCAN_WORKERS", runtime.GOMAXPROCS(0)),
		ScanBatchSize:       getenvIntDefault("SCAN_BATCH_SIZE", defaultBatchSize),
		AWSDiscoveryEnabled: getenvBoolDefault("AWS_DISCOVERY_ENABLED", false),
		AWSRegion:           strings.TrimSpace(os.Getenv("AWS_REGION")),
		AWSSourceName:       getenvDefault("AWS_SOURCE_NAME", "aws"),
	}

	if v := os.Getenv("SCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ScanInterval = d
		}
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch v {
	case "1":
		return true
	case "0":
		return false
	default:
		return def
	}
}
