package cmd

import (
	"context"

	"testagent/internal/formatting"
	"testagent/internal/history"
	"testagent/pkg/models"

	"github.com/spf13/cobra"
)

func newE2ECmd() *cobra.Command {
	e2eCmd := &cobra.Command{
		Use:   "e2e",
		Short: "Browse end-to-end functional test reports",
	}
	e2eCmd.AddCommand(
		newE2EReportsCmd(),
		newE2EReportItemsCmd("results", "Show the test results of a report", testResultColumns(),
			func(app *application) func(ctx context.Context, id string) ([]models.Record, error) {
				return app.api.E2E.TestResults
			}),
		newE2EReportItemsCmd("cases", "Show the test cases of a report", testCaseColumns(),
			func(app *application) func(ctx context.Context, id string) ([]models.Record, error) {
				return app.api.E2E.TestCases
			}),
	)
	return e2eCmd
}

func newE2EReportsCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"list"},
		Short:   "List the E2E reports of a project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.listDomain(cmd, history.DomainE2E, project, []formatting.Column{
				{Header: "ID", Value: models.Record.ID},
				formatting.Field("Name", "report_name", "name", "title"),
				formatting.Field("Total", "total_tests"),
				formatting.Field("Passed", "passed"),
				formatting.Field("Failed", "failed"),
				{Header: "Date", Value: history.LastRunDate},
			})
		},
	}
	addProjectFlag(cmd, &project)
	return cmd
}

func testResultColumns() []formatting.Column {
	return []formatting.Column{
		formatting.Field("Test", "test_name", "name", "title"),
		{Header: "Status", Value: func(r models.Record) string { return string(history.RunStatus(r)) }},
		formatting.Field("Duration", "duration", "duration_ms"),
		formatting.Field("Error", "error", "error_message"),
	}
}

func newE2EReportItemsCmd(use, short string, columns []formatting.Column, list func(*application) func(ctx context.Context, id string) ([]models.Record, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <report-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			items, err := list(app)(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.printer.Print(formatting.RecordsView{Heading: "Report " + args[0], Columns: columns, Records: items})
		},
	}
}
