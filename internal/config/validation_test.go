package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantFields []string
	}{
		{"defaults are valid", func(*Config) {}, nil},
		{"relative url", func(c *Config) { c.Backend.URL = "/api" }, []string{"backend.url"}},
		{"ftp url", func(c *Config) { c.Backend.URL = "ftp://example.com" }, []string{"backend.url"}},
		{"negative timeout", func(c *Config) { c.Backend.Timeout = -1 }, []string{"backend.timeout"}},
		{"bad output", func(c *Config) { c.Output = "xml" }, []string{"output"}},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, []string{"logLevel"}},
		{"bad log format", func(c *Config) { c.LogFormat = "logfmt" }, []string{"logFormat"}},
		{"several problems", func(c *Config) {
			c.Backend.URL = ""
			c.Output = "xml"
		}, []string{"backend.url", "output"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)

			errs := Validate(cfg)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("output", "must be one of table, json, yaml", "xml")
	assert.Equal(t, "field 'output': must be one of table, json, yaml", errs.Error())

	errs.Add("backend.url", "must be an absolute http or https URL", "")
	assert.Contains(t, errs.Error(), "validation failed:")
}
