package config

import "time"

// Config is the testagent client configuration, stored in
// ~/.config/testagent/config.yaml.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	// Output is the default output format for list/get commands (table, json, yaml).
	Output string `yaml:"output,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`
	// LogFormat is text or json.
	LogFormat string `yaml:"logFormat,omitempty"`
	// SessionDir holds the persisted session files.
	SessionDir string `yaml:"sessionDir,omitempty"`
}

// BackendConfig describes how to reach the testing-agent backend.
type BackendConfig struct {
	// URL is the backend base URL, e.g. http://localhost:8000.
	URL string `yaml:"url"`
	// Timeout bounds each HTTP request. Long test runs stream or poll, so this
	// is a per-request limit, not a per-run one.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// GitHubCallbackPort is the local port used to receive the GitHub OAuth redirect.
	GitHubCallbackPort int `yaml:"githubCallbackPort,omitempty"`
}
