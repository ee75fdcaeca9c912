package config

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/specdeck/specdeck/errors"
)

// configFileNames are tried in order when searching for a config file.
var configFileNames = []string{"specdeck.yml", "specdeck.yaml", "specdeck.toml"}

// knownSections are top-level keys that belong to the core config; everything
// else is retained in Extensions.
var knownSections = map[string]struct{}{
	"version":  {},
	"workflow": {},
	"sync":     {},
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file")
	}

	if strings.HasSuffix(path, ".toml") {
		return LoadFromTOMLBytes(data)
	}
	return LoadFromBytes(data)
}

// LoadDefault searches the current directory and its parents for a specdeck
// config file and loads the first one found.
func LoadDefault() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get working directory")
	}

	path, err := FindConfigFile(dir)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// FindConfigFile walks from dir up to the filesystem root looking for a
// specdeck config file.
func FindConfigFile(dir string) (string, error) {
	for {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.ConfigNotFound(filepath.Join(dir, configFileNames[0]))
		}
		dir = parent
	}
}

// LoadFromBytes parses YAML config data, capturing unknown sections as
// extensions and applying defaults for unset fields.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML config")
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML config")
	}
	cfg.Extensions = extractExtensions(raw)

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromTOMLBytes parses TOML config data the same way LoadFromBytes parses YAML.
func LoadFromTOMLBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML config")
	}

	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML config")
	}
	cfg.Extensions = extractExtensions(raw)

	cfg.applyDefaults()
	return &cfg, nil
}

func extractExtensions(raw map[string]interface{}) map[string]interface{} {
	extensions := make(map[string]interface{})
	for key, value := range raw {
		if _, known := knownSections[key]; !known {
			extensions[key] = value
		}
	}
	return extensions
}
