package config

import "time"

const (
	// DefaultBackendURL is used when nothing else is configured.
	DefaultBackendURL = "http://localhost:8000"

	// DefaultTimeout bounds a single backend request.
	DefaultTimeout = 5 * time.Minute

	// DefaultGitHubCallbackPort is the loopback port for the GitHub login redirect.
	DefaultGitHubCallbackPort = 8765

	// DefaultOutput is the default output format.
	DefaultOutput = "table"
)

// GetDefaultConfig returns the built-in configuration.
func GetDefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			URL:                DefaultBackendURL,
			Timeout:            DefaultTimeout,
			GitHubCallbackPort: DefaultGitHubCallbackPort,
		},
		Output:    DefaultOutput,
		LogLevel:  "warn",
		LogFormat: "text",
	}
}
