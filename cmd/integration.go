package cmd

import (
	"fmt"
	"strings"

	"testagent/internal/adapters"
	"testagent/internal/formatting"
	"testagent/internal/history"

	"github.com/spf13/cobra"
)

func newIntegrationCmd() *cobra.Command {
	integrationCmd := &cobra.Command{
		Use:     "integration",
		Aliases: []string{"api"},
		Short:   "Generate and run API integration scenarios",
	}
	integrationCmd.AddCommand(
		newIntegrationScenariosCmd(),
		newIntegrationScriptCmd(),
		newIntegrationRunCmd(),
		newIntegrationRunsCmd(),
	)
	return integrationCmd
}

func scenarioColumns() []formatting.Column {
	return []formatting.Column{
		formatting.Field("ID", "scenario_id", "id", "_id"),
		formatting.Field("Name", "scenario_name", "name", "title"),
		formatting.Field("Method", "method"),
		formatting.Field("Endpoint", "endpoint", "url", "path"),
	}
}

func newIntegrationScenariosCmd() *cobra.Command {
	var (
		project string
		postman string
		baseURL string
	)
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Generate test scenarios from the project's Postman collection and user stories",
		Args:  cobra.NoArgs,
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

			p, err := app.api.Projects.Get(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			req := adapters.ScenarioRequest{
				ProjectID:         projectID,
				PostmanCollection: p.PostmanCollection,
				UserStories:       strings.Join(p.UserStories, "\n"),
				BaseURL:           baseURL,
			}
			if postman != "" {
				if req.PostmanCollection, err = readPostman(app.in, postman); err != nil {
					return err
				}
			}
			if req.BaseURL == "" {
				req.BaseURL = p.ProjectURL
			}

			s := app.startSpinner("Generating scenarios...")
			scenarios, err := app.api.Integration.GenerateScenarios(cmd.Context(), req)
			stopSpinner(s, err)
			if err != nil {
				return err
			}
			return app.printer.Print(formatting.RecordsView{Heading: "Scenarios", Columns: scenarioColumns(), Records: scenarios})
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&postman, "postman", "", "Postman collection file to use instead of the project's ('-' for stdin)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL (default: the project URL)")
	return cmd
}

func newIntegrationScriptCmd() *cobra.Command {
	var (
		project  string
		language string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "script <scenario-id>",
		Short: "Generate an executable test script for a scenario",
		Args:  cobra.ExactArgs(1),
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

			script, err := app.api.Integration.GenerateScript(cmd.Context(), adapters.ScriptRequest{
				ProjectID:  projectID,
				ScenarioID: args[0],
				Language:   language,
			})
			if err != nil {
				return err
			}

			if out != "" {
				code := script.String("script")
				if code == "" {
					code = script.String("code")
				}
				if code == "" {
					return fmt.Errorf("the backend returned no script for scenario %s", args[0])
				}
				if err := writeOutput(app.out, out, []byte(code)); err != nil {
					return err
				}
				if out != "-" {
					app.info("Wrote script to %s", out)
				}
				return nil
			}
			return app.printer.Print(formatting.RecordDetail("Script", script))
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&language, "language", "", "Script language, for example python or javascript")
	cmd.Flags().StringVar(&out, "out", "", "Write only the script source to this file ('-' for stdout)")
	return cmd
}

func newIntegrationRunCmd() *cobra.Command {
	var (
		project string
		baseURL string
		env     []string
	)
	cmd := &cobra.Command{
		Use:   "run <scenario-id>",
		Short: "Run one scenario against the API",
		Args:  cobra.ExactArgs(1),
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
			environment, err := parseFields(env)
			if err != nil {
				return err
			}
			if len(environment) == 0 {
				environment = nil
			}

			s := app.startSpinner(fmt.Sprintf("Running scenario %s...", args[0]))
			run, err := app.api.Integration.RunScenario(cmd.Context(), args[0], adapters.RunRequest{
				ProjectID:   projectID,
				BaseURL:     baseURL,
				Environment: environment,
			})
			stopSpinner(s, err)
			if err != nil {
				return err
			}
			return app.printer.Print(formatting.RecordDetail(fmt.Sprintf("Run (%s)", history.RunStatus(run)), run))
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL")
	cmd.Flags().StringArrayVar(&env, "env", nil, "Environment variable key=value for the run (repeatable)")
	return cmd
}

func newIntegrationRunsCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List integration test runs of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.listDomain(cmd, history.DomainIntegration, project, nil)
		},
	}
	addProjectFlag(cmd, &project)
	return cmd
}
