package config

import (
	"os"
	"path/filepath"

	"github.com/okriek/inkwell/errors"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the document MCP server binary.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	BoltPath string `yaml:"bolt_path"`
}

// CacheConfig configures the on-disk markdown cache and its sidecar
// file server.
type CacheConfig struct {
	Dir    string   `yaml:"dir"`
	Addr   string   `yaml:"addr"`
	Expose []string `yaml:"expose"`
}

type Config struct {
	Provider         string       `yaml:"provider"`
	Model            string       `yaml:"model"`
	MaxTokens        int          `yaml:"max_tokens"`
	SummaryMaxTokens int          `yaml:"summary_max_tokens"`
	MaxRounds        int          `yaml:"max_rounds"`
	Server           ServerConfig `yaml:"server"`
	Cache            CacheConfig  `yaml:"cache"`
}

// Default returns the built-in configuration used when no config file
// overrides a value.
func Default() *Config {
	return &Config{
		Provider:         "anthropic",
		Model:            "claude-3-5-sonnet-20241022",
		MaxTokens:        1000,
		SummaryMaxTokens: 200,
		MaxRounds:        20,
		Server: ServerConfig{
			Addr:     "127.0.0.1:8000",
			BoltPath: defaultStatePath("documents.db"),
		},
		Cache: CacheConfig{
			Dir:    defaultStatePath("cache"),
			Addr:   "127.0.0.1:8080",
			Expose: []string{"*.md"},
		},
	}
}

// Load reads configuration from the user's home directory and the current
// working directory, with the latter taking precedence over the former and
// both over the defaults.
func Load() (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".inkwell", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".inkwell", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites only the fields present in the YAML, which gives
	// a simple merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}

func defaultStatePath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".inkwell", name)
	}
	return filepath.Join(home, ".inkwell", name)
}
