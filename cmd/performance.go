package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"testagent/internal/adapters"
	"testagent/internal/formatting"
	"testagent/internal/history"
	"testagent/pkg/models"

	"github.com/spf13/cobra"
)

func newPerformanceCmd() *cobra.Command {
	perfCmd := &cobra.Command{
		Use:     "performance",
		Aliases: []string{"perf", "load"},
		Short:   "Run load tests and browse their results",
	}
	perfCmd.AddCommand(newPerformanceRunCmd(), newPerformanceRunsCmd())
	return perfCmd
}

func newPerformanceRunCmd() *cobra.Command {
	var (
		project  string
		req      adapters.PerformanceRequest
		duration int
	)
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run a load test against a URL",
		Example: `  testagent performance run --target-url https://staging.example.com/api/health --users 20 --duration 30`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			if req.ProjectID, err = app.projectID(project); err != nil {
				return err
			}
			if req.TargetURL == "" {
				return usageErrorf("--target-url is required")
			}
			req.Method = strings.ToUpper(req.Method)
			switch req.Method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead:
			default:
				return usageErrorf("unsupported method %q", req.Method)
			}
			if req.ConcurrentUsers < 1 || duration < 1 {
				return usageErrorf("--users and --duration must be positive")
			}
			req.DurationSeconds = duration

			s := app.startSpinner(fmt.Sprintf("Load testing %s with %d users for %ds...", req.TargetURL, req.ConcurrentUsers, duration))
			result, err := app.api.Performance.RunTest(cmd.Context(), req)
			stopSpinner(s, err)
			if err != nil {
				return err
			}
			return app.printer.Print(formatting.RecordDetail("Load test result", result))
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&req.TargetURL, "target-url", "", "URL to load test")
	cmd.Flags().StringVar(&req.Method, "method", http.MethodGet, "HTTP method")
	cmd.Flags().IntVar(&req.ConcurrentUsers, "users", 10, "Concurrent virtual users")
	cmd.Flags().IntVar(&duration, "duration", 30, "Test duration in seconds")
	return cmd
}

func newPerformanceRunsCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:     "runs",
		Aliases: []string{"list", "ls"},
		Short:   "List load test runs of a project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.listDomain(cmd, history.DomainPerformance, project, []formatting.Column{
				{Header: "ID", Value: models.Record.ID},
				formatting.Field("Target", "target_url", "url"),
				formatting.Field("Requests", "total_requests"),
				formatting.Field("Avg (ms)", "avg_response_time"),
				{Header: "Date", Value: history.LastRunDate},
			})
		},
	}
	addProjectFlag(cmd, &project)
	return cmd
}
