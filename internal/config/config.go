package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Engine   EngineConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// EngineConfig holds the tuning knobs of the reconstruction engine.
// Everything here is resolved per request from static configuration; there
// is no module-level mutable state, so concurrent requests for different
// institutions never interfere.
type EngineConfig struct {
	// ExtremeReturnThreshold is the absolute monthly return above which a
	// period is flagged (never removed). Tuned empirically against
	// broker-reported ground truth.
	ExtremeReturnThreshold float64

	// RiskFreeFallbackRate is the conservative annual rate used when the
	// risk-free provider is unavailable.
	RiskFreeFallbackRate float64

	// NeutralizationMode selects the incomplete-trade strategy,
	// "drop_orphans" or "inject_open". Evaluated empirically; drop_orphans
	// reduced error against reference data without regressing other scopes.
	NeutralizationMode string

	// PerSymbolInceptionSources lists institutions whose feeds are complete
	// enough for per-symbol inception anchoring. Institutions with a bounded
	// lookback window must stay on the global-inception fallback, since
	// per-symbol anchoring on truncated data overstates holding periods.
	PerSymbolInceptionSources []string

	// MinBenchmarkOverlap is the minimum number of aligned periods required
	// before benchmark statistics are computed.
	MinBenchmarkOverlap int

	// LowCoverageThreshold is the data-coverage ratio below which a
	// low-coverage warning is attached to the result.
	LowCoverageThreshold float64

	// DefaultBenchmark is the ticker used when a request names none.
	DefaultBenchmark string

	// CacheTTL bounds how long a computed result may be served from cache.
	CacheTTL time.Duration

	// RefreshCronSpec schedules the benchmark and risk-free refresh job.
	RefreshCronSpec string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/performance_engine.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Engine: EngineConfig{
			ExtremeReturnThreshold:    getEnvFloat("ENGINE_EXTREME_RETURN_THRESHOLD", 0.5),
			RiskFreeFallbackRate:      getEnvFloat("ENGINE_RISK_FREE_FALLBACK", 0.03),
			NeutralizationMode:        getEnv("ENGINE_NEUTRALIZATION_MODE", "drop_orphans"),
			PerSymbolInceptionSources: getEnvList("ENGINE_PER_SYMBOL_INCEPTION_SOURCES", nil),
			MinBenchmarkOverlap:       getEnvInt("ENGINE_MIN_BENCHMARK_OVERLAP", 3),
			LowCoverageThreshold:      getEnvFloat("ENGINE_LOW_COVERAGE_THRESHOLD", 0.8),
			DefaultBenchmark:          getEnv("ENGINE_DEFAULT_BENCHMARK", "^GSPC"),
			CacheTTL:                  getEnvDuration("ENGINE_CACHE_TTL", 15*time.Minute),
			RefreshCronSpec:           getEnv("ENGINE_REFRESH_CRON", "30 5 * * *"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// PerSymbolInceptionEnabled reports whether the given institution's feed is
// trusted for per-symbol inception anchoring.
func (c EngineConfig) PerSymbolInceptionEnabled(source string) bool {
	for _, s := range c.PerSymbolInceptionSources {
		if strings.EqualFold(s, source) {
			return true
		}
	}
	return false
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvFloat gets an environment variable parsed as float64 or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvInt gets an environment variable parsed as int or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration gets an environment variable parsed as a duration or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvList gets a comma-separated environment variable or returns a default value
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
