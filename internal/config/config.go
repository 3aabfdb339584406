package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/memory"
	"github.com/jwebster45206/world-engine/pkg/sim"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL    string
	DataDir     string // scenarios live under DataDir/scenarios
	ArchivePath string // SQLite memory archive; empty disables archiving

	WorldSeed uint64        // overrides scenario seeds when non-zero
	WorldTTL  time.Duration // 0 keeps worlds forever

	QuotaCritical    int
	QuotaOpportunity int
	QuotaDaily       int

	MemoryRecentCap int
	MemoryHardCap   int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		DataDir:     getEnv("DATA_DIR", "./data"),
	}
	cfg.ArchivePath = getEnv("ARCHIVE_PATH", filepath.Join(cfg.DataDir, "archive.db"))

	var err error
	if cfg.WorldSeed, err = strconv.ParseUint(getEnv("WORLD_SEED", "0"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid WORLD_SEED: %w", err)
	}
	if cfg.WorldTTL, err = time.ParseDuration(getEnv("WORLD_TTL", "0s")); err != nil {
		return nil, fmt.Errorf("invalid WORLD_TTL: %w", err)
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"QUOTA_CRITICAL", 1, &cfg.QuotaCritical},
		{"QUOTA_OPPORTUNITY", 1, &cfg.QuotaOpportunity},
		{"QUOTA_DAILY", 2, &cfg.QuotaDaily},
		{"MEMORY_RECENT_CAP", 20, &cfg.MemoryRecentCap},
		{"MEMORY_HARD_CAP", 60, &cfg.MemoryHardCap},
	}
	for _, v := range ints {
		n, err := strconv.Atoi(getEnv(v.key, strconv.Itoa(v.def)))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.key, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid %s: must not be negative", v.key)
		}
		*v.dest = n
	}
	if cfg.MemoryRecentCap > cfg.MemoryHardCap {
		return nil, fmt.Errorf("MEMORY_RECENT_CAP %d exceeds MEMORY_HARD_CAP %d", cfg.MemoryRecentCap, cfg.MemoryHardCap)
	}
	return cfg, nil
}

// ScenarioDir is where scenario files are read from.
func (c *Config) ScenarioDir() string {
	return filepath.Join(c.DataDir, "scenarios")
}

// ApplyDefaults fills the quotas and memory bounds a scenario left unset.
func (c *Config) ApplyDefaults(def *sim.Definition) {
	if def.Quotas == nil {
		def.Quotas = event.Quotas{
			event.Critical:    c.QuotaCritical,
			event.Opportunity: c.QuotaOpportunity,
			event.Daily:       c.QuotaDaily,
		}
	}
	if def.Memory.RecentCap == 0 {
		mem := memory.DefaultConfig()
		mem.RecentCap = c.MemoryRecentCap
		mem.HardCap = c.MemoryHardCap
		def.Memory = mem
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
