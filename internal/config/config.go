// Package config loads tracker configuration from an optional YAML file
// plus environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all tracker configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	Feeds  FeedsConfig  `yaml:"feeds"`
	Notify NotifyConfig `yaml:"notify"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogJSON switches structured output to JSON.
	LogJSON bool `yaml:"log_json"`
}

// FeedsConfig holds feed-processing settings.
type FeedsConfig struct {
	// ActiveDir and ArchiveDir are the working-file locations used by the
	// publication archive move.
	ActiveDir  string `yaml:"active_dir"`
	ArchiveDir string `yaml:"archive_dir"`
	// InboxDir is watched for dropped feed files.
	InboxDir string `yaml:"inbox_dir"`
	// ToleratedQueueStates are editorial-queue base tokens that parse
	// without a warning even though they are not mapped.
	ToleratedQueueStates []string `yaml:"tolerated_queue_states"`
}

// NotifyConfig holds notification addressing.
type NotifyConfig struct {
	// CoordinationAddr receives registry action notifications.
	CoordinationAddr []string `yaml:"coordination_addr"`
	// AnnounceAddr receives queue-entry and publication announcements.
	AnnounceAddr []string `yaml:"announce_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:   "regsync.db",
		LogLevel: "info",
		Feeds: FeedsConfig{
			ToleratedQueueStates: []string{"TI"},
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty) over the
// defaults, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays REGSYNC_* environment variables. List-valued settings
// are comma-separated.
func applyEnv(cfg *Config) {
	cfg.DBPath = getenv("REGSYNC_DB_PATH", cfg.DBPath)
	cfg.LogLevel = getenv("REGSYNC_LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("REGSYNC_LOG_JSON"); v != "" {
		cfg.LogJSON = v == "1" || strings.EqualFold(v, "true")
	}

	cfg.Feeds.ActiveDir = getenv("REGSYNC_ACTIVE_DIR", cfg.Feeds.ActiveDir)
	cfg.Feeds.ArchiveDir = getenv("REGSYNC_ARCHIVE_DIR", cfg.Feeds.ArchiveDir)
	cfg.Feeds.InboxDir = getenv("REGSYNC_INBOX_DIR", cfg.Feeds.InboxDir)
	if v := os.Getenv("REGSYNC_TOLERATED_QUEUE_STATES"); v != "" {
		cfg.Feeds.ToleratedQueueStates = splitList(v)
	}

	if v := os.Getenv("REGSYNC_COORDINATION_ADDR"); v != "" {
		cfg.Notify.CoordinationAddr = splitList(v)
	}
	if v := os.Getenv("REGSYNC_ANNOUNCE_ADDR"); v != "" {
		cfg.Notify.AnnounceAddr = splitList(v)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
