// Package config loads project-level settings from .mirra/config.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the tool's directory at the project root.
	Dir = ".mirra"
	// ConfigFile sits inside Dir.
	ConfigFile = "config.yml"
	// RecordsSubdir holds the mirrored design records inside Dir.
	RecordsSubdir = "records"
	// IgnoreFile holds user ignore rules at the project root.
	IgnoreFile = ".mirraignore"
)

// Config is the persisted project configuration. Zero values fall back
// to defaults so a partial file is fine.
type Config struct {
	Model           string `yaml:"model"`
	DebounceSeconds int    `yaml:"debounce_seconds"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Model:           "gemini-2.5-flash",
		DebounceSeconds: 2,
	}
}

// Load reads the config from rootPath, returning defaults when the file
// is absent. Unknown keys are ignored; a malformed file is an error.
func Load(rootPath string) (Config, error) {
	cfg := Default()

	path := filepath.Join(rootPath, Dir, ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Model == "" {
		cfg.Model = Default().Model
	}
	if cfg.DebounceSeconds <= 0 {
		cfg.DebounceSeconds = Default().DebounceSeconds
	}
	return cfg, nil
}

// Save writes the config file, creating .mirra/ if needed.
func (c Config) Save(rootPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	path := filepath.Join(rootPath, Dir, ConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RecordsDir resolves the absolute records directory for a project.
func RecordsDir(rootPath string) string {
	return filepath.Join(rootPath, Dir, RecordsSubdir)
}

// LoadIgnoreRules reads user ignore rules from .mirraignore, returning
// nil when the file does not exist.
func LoadIgnoreRules(rootPath string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(rootPath, IgnoreFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFile, err)
	}

	return strings.Split(string(data), "\n"), nil
}
