// Package config loads the slot engine configuration from an optional YAML
// file overlaid with environment variables. Environment values win over file
// values; both are optional.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime configuration of the slot engine.
type Config struct {
	SQLiteDSN    string
	Location     string
	CacheTTL     time.Duration
	LogLevel     string
	DefaultRange int
}

// fileConfig mirrors Config for YAML decoding; durations are strings in
// time.ParseDuration syntax.
type fileConfig struct {
	SQLiteDSN    string `yaml:"sqlite_dsn"`
	Location     string `yaml:"location"`
	CacheTTL     string `yaml:"cache_ttl"`
	LogLevel     string `yaml:"log_level"`
	DefaultRange int    `yaml:"default_range_days"`
}

// Load parses configuration from SLOTCTL_CONFIG_FILE (when set) and the
// process environment. Defaults apply for every unset field.
func Load() (Config, error) {
	cfg := Config{
		SQLiteDSN:    "file:scheduler.db",
		Location:     "UTC",
		CacheTTL:     30 * time.Second,
		LogLevel:     "info",
		DefaultRange: 28,
	}

	if path := strings.TrimSpace(os.Getenv("SLOTCTL_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if file.SQLiteDSN != "" {
			cfg.SQLiteDSN = file.SQLiteDSN
		}
		if file.Location != "" {
			cfg.Location = file.Location
		}
		if file.CacheTTL != "" {
			ttl, err := time.ParseDuration(file.CacheTTL)
			if err != nil || ttl <= 0 {
				return Config{}, fmt.Errorf("invalid cache_ttl in config file %s: %q", path, file.CacheTTL)
			}
			cfg.CacheTTL = ttl
		}
		if file.LogLevel != "" {
			cfg.LogLevel = file.LogLevel
		}
		if file.DefaultRange != 0 {
			cfg.DefaultRange = file.DefaultRange
		}
	}

	invalid := make([]string, 0, 2)

	if dsn := strings.TrimSpace(os.Getenv("SLOTCTL_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if location := strings.TrimSpace(os.Getenv("SLOTCTL_LOCATION")); location != "" {
		cfg.Location = location
	}
	if _, err := time.LoadLocation(cfg.Location); err != nil {
		invalid = append(invalid, "SLOTCTL_LOCATION")
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SLOTCTL_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SLOTCTL_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if level := strings.TrimSpace(os.Getenv("SLOTCTL_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "SLOTCTL_LOG_LEVEL")
	}

	if rangeValue := strings.TrimSpace(os.Getenv("SLOTCTL_DEFAULT_RANGE_DAYS")); rangeValue != "" {
		days, err := strconv.Atoi(rangeValue)
		if err != nil || days <= 0 {
			invalid = append(invalid, "SLOTCTL_DEFAULT_RANGE_DAYS")
		} else {
			cfg.DefaultRange = days
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// TimeLocation resolves the configured IANA location name.
func (c Config) TimeLocation() (*time.Location, error) {
	return time.LoadLocation(c.Location)
}
