package config

import (
	"log/slog"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MOTIFMAP_EVALUE", "MOTIFMAP_COVERAGE", "MOTIFMAP_IDENTITY",
		"MOTIFMAP_MIN_ALIGNED_LENGTH", "MOTIFMAP_EXCLUDE_HIGH_FREQUENCY",
		"MOTIFMAP_DB", "MOTIFMAP_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestNewDefaults(t *testing.T) {
	clearEnv(t)

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Search.EValue != DefaultEValue {
		t.Errorf("expected evalue %v, got %v", DefaultEValue, settings.Search.EValue)
	}
	if settings.Search.Coverage != 50 || settings.Search.Identity != 30 {
		t.Errorf("expected coverage 50 and identity 30, got %v and %v", settings.Search.Coverage, settings.Search.Identity)
	}
	if settings.Domains.MinAlignedLength != 4 {
		t.Errorf("expected min aligned length 4, got %d", settings.Domains.MinAlignedLength)
	}
	if settings.Domains.ExcludeHighFrequency {
		t.Error("expected high-frequency motifs to be kept by default")
	}
	if settings.Storage.DBPath != DefaultDBPath {
		t.Errorf("expected db path %q, got %q", DefaultDBPath, settings.Storage.DBPath)
	}
	if settings.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", settings.LogLevel)
	}
}

func TestDefaultsMatchEmptyEnv(t *testing.T) {
	clearEnv(t)

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings != Defaults() {
		t.Errorf("expected %+v, got %+v", Defaults(), settings)
	}
}

func TestNewFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOTIFMAP_EVALUE", "1e-10")
	t.Setenv("MOTIFMAP_COVERAGE", "70")
	t.Setenv("MOTIFMAP_IDENTITY", "45.5")
	t.Setenv("MOTIFMAP_MIN_ALIGNED_LENGTH", "0")
	t.Setenv("MOTIFMAP_EXCLUDE_HIGH_FREQUENCY", "true")
	t.Setenv("MOTIFMAP_DB", "/tmp/projects.db")
	t.Setenv("MOTIFMAP_LOG_LEVEL", "DEBUG")

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Search.EValue != 1e-10 || settings.Search.Coverage != 70 || settings.Search.Identity != 45.5 {
		t.Errorf("search thresholds not read: %+v", settings.Search)
	}
	if settings.Domains.MinAlignedLength != 0 || !settings.Domains.ExcludeHighFrequency {
		t.Errorf("domain settings not read: %+v", settings.Domains)
	}
	if settings.Storage.DBPath != "/tmp/projects.db" {
		t.Errorf("expected db path override, got %q", settings.Storage.DBPath)
	}
	if settings.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", settings.LogLevel)
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	cases := map[string]string{
		"MOTIFMAP_EVALUE":                 "tiny",
		"MOTIFMAP_COVERAGE":               "most",
		"MOTIFMAP_MIN_ALIGNED_LENGTH":     "four",
		"MOTIFMAP_EXCLUDE_HIGH_FREQUENCY": "sometimes",
		"MOTIFMAP_LOG_LEVEL":              "loud",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := New(); err == nil {
				t.Errorf("expected error for %s=%q", key, val)
			}
		})
	}
}

func TestNewRejectsNegativeMinAlignedLength(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOTIFMAP_MIN_ALIGNED_LENGTH", "-1")

	if _, err := New(); err == nil {
		t.Error("expected error for negative min aligned length")
	}
}

func TestMustNewPanicsOnInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOTIFMAP_IDENTITY", "high")

	defer func() {
		if recover() == nil {
			t.Error("expected MustNew to panic")
		}
	}()
	MustNew()
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" Error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
