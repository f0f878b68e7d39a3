// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Log level lookup

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Settings holds all application configuration.
type Settings struct {
	Search   SearchConfig
	Domains  DomainConfig
	Storage  StorageConfig
	LogLevel slog.Level
}

// SearchConfig holds the BLAST hit thresholds applied at ingestion.
type SearchConfig struct {
	EValue   float64
	Coverage float64
	Identity float64
}

// DomainConfig holds motif localization configuration.
type DomainConfig struct {
	MinAlignedLength     int
	ExcludeHighFrequency bool
}

// StorageConfig holds project database configuration.
type StorageConfig struct {
	DBPath string
}

// Defaults used when the corresponding variable is unset.
const (
	DefaultEValue           = 0.00001
	DefaultCoverage         = 50.0
	DefaultIdentity         = 30.0
	DefaultMinAlignedLength = 4
	DefaultDBPath           = ".motifmap/motifmap.db"
)

// Defaults returns the settings used when no variable is set.
func Defaults() Settings {
	return Settings{
		Search:   SearchConfig{EValue: DefaultEValue, Coverage: DefaultCoverage, Identity: DefaultIdentity},
		Domains:  DomainConfig{MinAlignedLength: DefaultMinAlignedLength},
		Storage:  StorageConfig{DBPath: DefaultDBPath},
		LogLevel: slog.LevelInfo,
	}
}

// New creates settings, loading values from environment variables.
// Returns an error if environment variables contain invalid values.
func New() (Settings, error) {
	evalue, err := getEnvFloat64("MOTIFMAP_EVALUE", DefaultEValue)
	if err != nil {
		return Settings{}, err
	}

	coverage, err := getEnvFloat64("MOTIFMAP_COVERAGE", DefaultCoverage)
	if err != nil {
		return Settings{}, err
	}

	identity, err := getEnvFloat64("MOTIFMAP_IDENTITY", DefaultIdentity)
	if err != nil {
		return Settings{}, err
	}

	minAligned, err := getEnvInt("MOTIFMAP_MIN_ALIGNED_LENGTH", DefaultMinAlignedLength)
	if err != nil {
		return Settings{}, err
	}
	if minAligned < 0 {
		return Settings{}, fmt.Errorf("invalid value for MOTIFMAP_MIN_ALIGNED_LENGTH: %d must not be negative", minAligned)
	}

	exclude, err := getEnvBool("MOTIFMAP_EXCLUDE_HIGH_FREQUENCY", false)
	if err != nil {
		return Settings{}, err
	}

	level, err := ParseLogLevel(os.Getenv("MOTIFMAP_LOG_LEVEL"))
	if err != nil {
		return Settings{}, err
	}

	dbPath := os.Getenv("MOTIFMAP_DB")
	if dbPath == "" {
		dbPath = DefaultDBPath
	}

	return Settings{
		Search: SearchConfig{
			EValue:   evalue,
			Coverage: coverage,
			Identity: identity,
		},
		Domains: DomainConfig{
			MinAlignedLength:     minAligned,
			ExcludeHighFrequency: exclude,
		},
		Storage: StorageConfig{
			DBPath: dbPath,
		},
		LogLevel: level,
	}, nil
}

// MustNew creates settings from the environment.
// Panics if environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew() Settings {
	settings, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
// An empty string means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}
