package config

import (
	"fmt"
	"net/url"
	"strings"

	"testagent/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value interface{}) {
	*ve = append(*ve, ValidationError{Field: field, Value: value, Message: message})
}

// ValidOutputFormats lists the accepted values of Config.Output.
var ValidOutputFormats = []string{"table", "json", "yaml"}

// Validate checks cfg and returns every problem found.
func Validate(cfg Config) ValidationErrors {
	var errs ValidationErrors

	u, err := url.Parse(cfg.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add("backend.url", "must be an absolute http or https URL", cfg.Backend.URL)
	}

	if cfg.Backend.Timeout < 0 {
		errs.Add("backend.timeout", "must not be negative", cfg.Backend.Timeout)
	}

	if p := cfg.Backend.GitHubCallbackPort; p < 0 || p > 65535 {
		errs.Add("backend.githubCallbackPort", "must be a valid TCP port", p)
	}

	validOutput := false
	for _, f := range ValidOutputFormats {
		if cfg.Output == f {
			validOutput = true
			break
		}
	}
	if !validOutput {
		errs.Add("output", fmt.Sprintf("must be one of %s", strings.Join(ValidOutputFormats, ", ")), cfg.Output)
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errs.Add("logLevel", err.Error(), cfg.LogLevel)
	}

	if cfg.LogFormat != "" && cfg.LogFormat != string(logging.FormatText) && cfg.LogFormat != string(logging.FormatJSON) {
		errs.Add("logFormat", "must be text or json", cfg.LogFormat)
	}

	return errs
}
