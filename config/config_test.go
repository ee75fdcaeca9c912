package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".specdeck", cfg.Workflow.Dir)
	assert.Contains(t, cfg.Workflow.WatchedFiles, "spec.md")
	assert.Contains(t, cfg.Workflow.WatchedFiles, "tasks.md")
	assert.Equal(t, 300*time.Millisecond, cfg.Sync.Debounce())
	assert.Equal(t, 1500*time.Millisecond, cfg.Sync.MaxWait())
	assert.Equal(t, 5*time.Minute, cfg.Sync.CacheTTL())
	assert.Equal(t, 30*time.Second, cfg.Sync.RefreshInterval())

	require.NoError(t, cfg.Validate())
}

func TestLoadFromBytes(t *testing.T) {
	yamlContent := []byte(`
version: "1.0"
workflow:
  dir: "tracking"
  watched_files: ["spec.md", "tasks.md"]
sync:
  debounce_ms: 100
  max_wait_ms: 500
  event_log: true
`)

	cfg, err := LoadFromBytes(yamlContent)
	require.NoError(t, err)

	assert.Equal(t, "tracking", cfg.Workflow.Dir)
	assert.Equal(t, []string{"spec.md", "tasks.md"}, cfg.Workflow.WatchedFiles)
	assert.Equal(t, 100*time.Millisecond, cfg.Sync.Debounce())
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.MaxWait())
	assert.True(t, cfg.Sync.EventLog)

	// Unset fields fall back to defaults
	assert.Equal(t, 300, cfg.Sync.CacheTTLSeconds)
	assert.NotEmpty(t, cfg.Workflow.IgnorePatterns)
}

func TestLoadFromTOMLBytes(t *testing.T) {
	tomlContent := []byte(`
version = "1.0"

[workflow]
dir = "tracking"

[sync]
debounce_ms = 150
max_wait_ms = 900
`)

	cfg, err := LoadFromTOMLBytes(tomlContent)
	require.NoError(t, err)

	assert.Equal(t, "tracking", cfg.Workflow.Dir)
	assert.Equal(t, 150, cfg.Sync.DebounceMs)
	assert.Equal(t, 900, cfg.Sync.MaxWaitMs)
}

// TestExtensions verifies that custom sections in specdeck.yml are retained
// and decodable by sibling tools.
func TestExtensions(t *testing.T) {
	yamlContent := []byte(`
version: "1.0"
sync:
  debounce_ms: 100

logging:
  level: debug
  format:
    preset: simple

monitoring:
  enabled: true
  interval: 30
`)

	cfg, err := LoadFromBytes(yamlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg.Extensions)

	_, ok := cfg.Extensions["logging"]
	require.True(t, ok, "expected 'logging' extension to be present")
	_, ok = cfg.Extensions["monitoring"]
	require.True(t, ok, "expected 'monitoring' extension to be present")

	// Known sections are never treated as extensions
	_, ok = cfg.Extensions["sync"]
	assert.False(t, ok)

	type LogConfig struct {
		Level  string `yaml:"level"`
		Format struct {
			Preset string `yaml:"preset"`
		} `yaml:"format"`
	}

	var logCfg LogConfig
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, "simple", logCfg.Format.Preset)

	// Missing extensions leave the target zero-valued
	var missing LogConfig
	require.NoError(t, cfg.UnmarshalExtension("nope", &missing))
	assert.Empty(t, missing.Level)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Sync.MaxWaitMs = 100
	cfg.Sync.DebounceMs = 300

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_wait_ms")
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specdeck.yml"), []byte("version: \"1.0\"\n"), 0644))

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "specdeck.yml"), found)

	cfg, err := Load(found)
	require.NoError(t, err)
	assert.Equal(t, "1.0", cfg.Version)
}
