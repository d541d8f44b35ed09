package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"testagent/internal/config"
	"testagent/internal/gateway"
	"testagent/internal/wizard"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, backend error).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates the command needs a valid session.
	ExitCodeAuthRequired = 2
	// ExitCodeValidation indicates invalid input or configuration.
	ExitCodeValidation = 3
)

// Global flags shared by every command.
var (
	flagBackend   string
	flagOutput    string
	flagLogLevel  string
	flagLogFormat string
	flagConfigDir string
	flagQuiet     bool
	flagNoColor   bool
)

// rootCmd represents the base command for the testagent application.
var rootCmd = &cobra.Command{
	Use:   "testagent",
	Short: "Drive the testing-agent backend from the terminal",
	Long: `testagent is the command-line client of the testing-agent backend.

It manages projects, triggers test generation and test runs (integration,
end-to-end, regression, smoke and performance) and browses the run history
of the current project.

Getting started:
  testagent auth login                 # sign in with GitHub in the browser
  testagent project create             # create a project interactively
  testagent project use <id>           # make it the current project
  testagent history                    # summarize the project's test runs`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// SetVersion sets the version for the root command.
// It is called from the main package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a semantic exit code.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "testagent version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error to the exit code scripts can rely on.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var authRequired *AuthRequiredError
	if errors.As(err, &authRequired) || errors.Is(err, gateway.ErrUnauthorized) {
		return ExitCodeAuthRequired
	}

	var wizardErr *wizard.ValidationError
	var configErrs config.ValidationErrors
	var usageErr *UsageError
	if errors.As(err, &wizardErr) || errors.As(err, &configErrs) || errors.As(err, &usageErr) {
		return ExitCodeValidation
	}

	return ExitCodeError
}

func init() {
	versionCmd := newVersionCmd()
	versionCmd.Annotations = map[string]string{annotationSkipConfig: "true"}
	rootCmd.AddCommand(
		versionCmd,
		newAuthCmd(),
		newProjectCmd(),
		newTestCasesCmd(),
		newIntegrationCmd(),
		newE2ECmd(),
		newRegressionCmd(),
		newSmokeCmd(),
		newPerformanceCmd(),
		newHistoryCmd(),
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagBackend, "backend", "", "Backend base URL (env: TESTAGENT_BACKEND_URL)")
	pf.StringVarP(&flagOutput, "output", "o", "", "Output format: table, json, yaml (env: TESTAGENT_OUTPUT)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (env: TESTAGENT_LOG_LEVEL)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&flagConfigDir, "config-dir", "", "Configuration directory (default ~/.config/testagent, env: TESTAGENT_CONFIG_DIR)")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output and decorations")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
}
