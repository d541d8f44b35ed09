package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"testagent/pkg/logging"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/testagent"
	configFileName = "config.yaml"
	sessionDirName = "session"
)

// Environment variables that override config.yaml.
const (
	EnvBackendURL = "TESTAGENT_BACKEND_URL"
	EnvTimeout    = "TESTAGENT_TIMEOUT"
	EnvOutput     = "TESTAGENT_OUTPUT"
	EnvLogLevel   = "TESTAGENT_LOG_LEVEL"
	EnvSessionDir = "TESTAGENT_SESSION_DIR"
	EnvConfigDir  = "TESTAGENT_CONFIG_DIR"
)

// DefaultConfigDir returns ~/.config/testagent, or $TESTAGENT_CONFIG_DIR when set.
func DefaultConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return filepath.Clean(dir), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadDotEnv loads a .env file from the working directory into the process
// environment. Variables already set are not overridden and a missing file is
// not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logging.Debug("Config", "Loaded environment from %s", path)
	return nil
}

// LoadConfig reads config.yaml from configDir over the defaults, then applies
// environment overrides and validates the result. A missing file yields the
// defaults; a malformed one is an error.
func LoadConfig(configDir string) (Config, error) {
	cfg := GetDefaultConfig()
	configFilePath := filepath.Join(configDir, configFileName)

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("Config", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Debug("Config", "Loaded configuration from %s", configFilePath)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = filepath.Join(configDir, sessionDirName)
	}

	if errs := Validate(cfg); errs.HasErrors() {
		return Config{}, errs
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		cfg.Backend.Timeout = d
	}
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvSessionDir); v != "" {
		cfg.SessionDir = v
	}
	cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")
	return nil
}

// SaveConfig writes cfg to configDir/config.yaml.
func SaveConfig(configDir string, cfg Config) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, configFileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
