package cmd

import (
	"fmt"
	"strings"

	"testagent/internal/adapters"
	"testagent/internal/history"
	"testagent/pkg/logging"

	"github.com/spf13/cobra"
)

func newRegressionCmd() *cobra.Command {
	regressionCmd := &cobra.Command{
		Use:   "regression",
		Short: "List and trigger regression test runs",
	}
	regressionCmd.AddCommand(newRegressionListCmd(), newRegressionTriggerCmd())
	return regressionCmd
}

func newRegressionListCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "runs"},
		Short:   "List regression runs of a project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.listDomain(cmd, history.DomainRegression, project, nil)
		},
	}
	addProjectFlag(cmd, &project)
	return cmd
}

func newRegressionTriggerCmd() *cobra.Command {
	var (
		project string
		baseURL string
		suites  []string
	)
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger a regression run and follow its progress",
		Long: `Trigger a regression run. Progress lines are streamed from the backend and
printed as they arrive until the run finishes or the command is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			projectID, err := app.projectID(project)
			if err != nil {
				return err
			}

			app.info("Triggering regression run for project %s", projectID)
			lines := 0
			err = app.api.Regression.Trigger(cmd.Context(), adapters.RegressionRequest{
				ProjectID: projectID,
				BaseURL:   baseURL,
				Suites:    suites,
			}, func(line string) error {
				line = strings.TrimRight(line, "\r\n")
				if line == "" {
					return nil
				}
				lines++
				_, err := fmt.Fprintln(app.out, line)
				return err
			})
			if err != nil {
				return err
			}
			logging.Debug("Regression", "Stream closed after %d lines", lines)
			app.info("Regression run finished")
			return nil
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL of the application under test")
	cmd.Flags().StringSliceVar(&suites, "suite", nil, "Suite to run (repeatable or comma separated)")
	return cmd
}
