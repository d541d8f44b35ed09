package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"testagent/internal/config"
	"testagent/internal/gateway"
	"testagent/internal/wizard"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestSetVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	SetVersion("1.2.3-test")
	if rootCmd.Version != "1.2.3-test" {
		t.Errorf("Expected version to be 1.2.3-test, got %s", rootCmd.Version)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "testagent" {
		t.Errorf("Expected Use to be 'testagent', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" || rootCmd.Long == "" {
		t.Error("Expected descriptions to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "testagent version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	if err := testCmd.Execute(); err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	if buf.String() != "testagent version 1.0.0\n" {
		t.Errorf("Expected version output %q, got %q", "testagent version 1.0.0\n", buf.String())
	}
}

func TestSubcommands(t *testing.T) {
	expected := map[string][]string{
		"version":     nil,
		"auth":        {"login", "logout", "status", "whoami"},
		"project":     {"list", "get", "create", "edit", "delete", "use", "current"},
		"testcases":   {"generate", "list", "get", "export"},
		"integration": {"scenarios", "script", "run", "runs"},
		"e2e":         {"reports", "results", "cases"},
		"regression":  {"list", "trigger"},
		"smoke":       {"list", "get", "run", "generate", "docker"},
		"performance": {"run", "runs"},
		"history":     {"show", "download", "report"},
	}

	for name, subs := range expected {
		c, _, err := rootCmd.Find([]string{name})
		if !assert.NoError(t, err, name) || !assert.Equal(t, name, c.Name()) {
			continue
		}
		for _, sub := range subs {
			found := false
			for _, child := range c.Commands() {
				if child.Name() == sub {
					found = true
				}
			}
			assert.True(t, found, "expected %s %s", name, sub)
		}
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitCodeSuccess},
		{"generic", errors.New("boom"), ExitCodeError},
		{"auth required", &AuthRequiredError{Reason: "not signed in"}, ExitCodeAuthRequired},
		{"wrapped auth required", fmt.Errorf("history: %w", &AuthRequiredError{}), ExitCodeAuthRequired},
		{"backend 401", &gateway.APIError{Kind: gateway.KindUnauthorized, Status: 401}, ExitCodeAuthRequired},
		{"backend 500", &gateway.APIError{Kind: gateway.KindServer, Status: 500}, ExitCodeError},
		{"usage", usageErrorf("bad flag"), ExitCodeValidation},
		{"wizard", &wizard.ValidationError{Step: wizard.StepBasics, Field: "name", Message: "is required"}, ExitCodeValidation},
		{"config", config.ValidationErrors{{Field: "output", Message: "invalid"}}, ExitCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}
