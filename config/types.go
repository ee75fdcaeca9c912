// Package config defines the explicit configuration for the specdeck
// synchronization engine. Configuration is threaded through constructors;
// there is no ambient global state.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Config is the root configuration loaded from specdeck.yml (or specdeck.toml).
type Config struct {
	Version  string         `yaml:"version" toml:"version" json:"version,omitempty"`
	Workflow WorkflowConfig `yaml:"workflow" toml:"workflow" json:"workflow"`
	Sync     SyncConfig     `yaml:"sync" toml:"sync" json:"sync"`

	// Extensions holds unknown top-level sections so that sibling tools can
	// store their own configuration in the same file.
	Extensions map[string]interface{} `yaml:"-" toml:"-" json:"-"`
}

// WorkflowConfig describes the task-tracking directory being mirrored.
type WorkflowConfig struct {
	// Dir is the workflow root, relative to the project directory.
	Dir string `yaml:"dir" toml:"dir" json:"dir,omitempty"`

	// WatchedFiles is the fixed set of filenames the watcher reacts to.
	WatchedFiles []string `yaml:"watched_files" toml:"watched_files" json:"watched_files,omitempty"`

	// IgnorePatterns are dockerignore-style patterns for paths the watcher
	// discards before debouncing (e.g. ".git", "node_modules").
	IgnorePatterns []string `yaml:"ignore_patterns" toml:"ignore_patterns" json:"ignore_patterns,omitempty"`
}

// SyncConfig holds the timing knobs for the synchronization engine.
type SyncConfig struct {
	CacheTTLSeconds        int  `yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds" json:"cache_ttl_seconds,omitempty"`
	DebounceMs             int  `yaml:"debounce_ms" toml:"debounce_ms" json:"debounce_ms,omitempty"`
	MaxWaitMs              int  `yaml:"max_wait_ms" toml:"max_wait_ms" json:"max_wait_ms,omitempty"`
	RefreshIntervalSeconds int  `yaml:"refresh_interval_seconds" toml:"refresh_interval_seconds" json:"refresh_interval_seconds,omitempty"`
	EventLog               bool `yaml:"event_log" toml:"event_log" json:"event_log,omitempty"`
}

// CacheTTL returns the default cache TTL as a duration.
func (s SyncConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// Debounce returns the debounce quiet period as a duration.
func (s SyncConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// MaxWait returns the max-wait debounce bound as a duration.
func (s SyncConfig) MaxWait() time.Duration {
	return time.Duration(s.MaxWaitMs) * time.Millisecond
}

// RefreshInterval returns the background refresh period as a duration.
func (s SyncConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalSeconds) * time.Second
}

// Default returns a Config populated with the standard defaults.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Workflow: WorkflowConfig{
			Dir:            ".specdeck",
			WatchedFiles:   []string{"spec.md", "tasks.md", "fix.md", "recap.md"},
			IgnorePatterns: []string{".git", "node_modules", ".specdeck/logs"},
		},
		Sync: SyncConfig{
			CacheTTLSeconds:        300,
			DebounceMs:             300,
			MaxWaitMs:              1500,
			RefreshIntervalSeconds: 30,
			EventLog:               false,
		},
	}
}

// applyDefaults fills zero-valued fields from Default.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Workflow.Dir == "" {
		c.Workflow.Dir = def.Workflow.Dir
	}
	if len(c.Workflow.WatchedFiles) == 0 {
		c.Workflow.WatchedFiles = def.Workflow.WatchedFiles
	}
	if len(c.Workflow.IgnorePatterns) == 0 {
		c.Workflow.IgnorePatterns = def.Workflow.IgnorePatterns
	}
	if c.Sync.CacheTTLSeconds == 0 {
		c.Sync.CacheTTLSeconds = def.Sync.CacheTTLSeconds
	}
	if c.Sync.DebounceMs == 0 {
		c.Sync.DebounceMs = def.Sync.DebounceMs
	}
	if c.Sync.MaxWaitMs == 0 {
		c.Sync.MaxWaitMs = def.Sync.MaxWaitMs
	}
	if c.Sync.RefreshIntervalSeconds == 0 {
		c.Sync.RefreshIntervalSeconds = def.Sync.RefreshIntervalSeconds
	}
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded specdeck.yml into the provided target struct. The target must be a
// pointer. This provides a type-safe way for sibling tools to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{}
	// into the strongly-typed target struct, keyed by yaml tags.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
