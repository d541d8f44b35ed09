package cmd

import (
	"fmt"

	"testagent/internal/adapters"
	"testagent/internal/formatting"
	"testagent/internal/history"
	"testagent/pkg/models"

	"github.com/spf13/cobra"
)

func newSmokeCmd() *cobra.Command {
	smokeCmd := &cobra.Command{
		Use:   "smoke",
		Short: "Generate and run smoke tests",
	}
	smokeCmd.AddCommand(
		newSmokeListCmd(),
		newSmokeGetCmd(),
		newSmokeRunCmd(),
		newSmokeGenerateCmd(),
		newSmokeDockerCmd(),
	)
	return smokeCmd
}

func newSmokeListCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "runs"},
		Short:   "List smoke test runs of a project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.listDomain(cmd, history.DomainSmoke, project, []formatting.Column{
				{Header: "ID", Value: models.Record.ID},
				formatting.Field("Target", "target_url", "url"),
				formatting.Field("Passed", "passed"),
				formatting.Field("Failed", "failed"),
				{Header: "Date", Value: history.LastRunDate},
			})
		},
	}
	addProjectFlag(cmd, &project)
	return cmd
}

func newSmokeGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show one smoke test run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			run, err := app.api.Smoke.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.printer.Print(formatting.RecordDetail("Smoke run "+args[0], run))
		},
	}
}

func newSmokeRunCmd() *cobra.Command {
	var (
		project   string
		targetURL string
		tests     []string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the smoke suite against a target URL",
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
			if targetURL == "" {
				targetURL = app.projectFor(projectID).ProjectURL
			}
			if targetURL == "" {
				return usageErrorf("--target-url is required when the project has no URL")
			}

			s := app.startSpinner(fmt.Sprintf("Running smoke tests against %s...", targetURL))
			run, err := app.api.Smoke.Run(cmd.Context(), adapters.SmokeRunRequest{
				ProjectID: projectID,
				TargetURL: targetURL,
				Tests:     tests,
			})
			stopSpinner(s, err)
			if err != nil {
				return err
			}
			return app.printer.Print(formatting.RecordDetail(fmt.Sprintf("Smoke run (%s)", history.RunStatus(run)), run))
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&targetURL, "target-url", "", "URL to test (default: the project URL)")
	cmd.Flags().StringSliceVar(&tests, "test", nil, "Only run these tests (repeatable or comma separated)")
	return cmd
}

func newSmokeGenerateCmd() *cobra.Command {
	var (
		project string
		files   []string
		fields  []string
		save    string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a smoke suite from uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			if len(files) == 0 {
				return usageErrorf("at least one --file is required")
			}
			projectID, err := app.projectID(project)
			if err != nil {
				return err
			}
			form, err := parseFields(fields)
			if err != nil {
				return err
			}
			form["project_id"] = projectID

			parts, release, err := openFiles("files", files)
			if err != nil {
				return err
			}
			defer release()

			s := app.startSpinner("Uploading documents...")
			suite, err := app.api.Smoke.Generate(cmd.Context(), parts, form, uploadProgress(s, "Uploading documents..."))
			stopSpinner(s, err)
			if err != nil {
				return err
			}
			if save != "" {
				if err := history.Download(suite, save); err != nil {
					return err
				}
				app.info("Saved to %s", save)
			}
			return app.printer.Print(formatting.RecordDetail("Smoke suite", suite))
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "Document to upload (repeatable)")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Extra form field key=value (repeatable)")
	cmd.Flags().StringVar(&save, "save", "", "Also write the full response as JSON to this path")
	return cmd
}

func newSmokeDockerCmd() *cobra.Command {
	var (
		project   string
		image     string
		targetURL string
	)
	cmd := &cobra.Command{
		Use:   "docker",
		Short: "Run the smoke suite inside a container on the backend",
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

			s := app.startSpinner("Running containerized smoke tests...")
			run, err := app.api.Smoke.RunDocker(cmd.Context(), adapters.DockerRunRequest{
				ProjectID: projectID,
				Image:     image,
				TargetURL: targetURL,
			})
			stopSpinner(s, err)
			if err != nil {
				return err
			}
			return app.printer.Print(formatting.RecordDetail(fmt.Sprintf("Docker smoke run (%s)", history.RunStatus(run)), run))
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&image, "image", "", "Container image to run")
	cmd.Flags().StringVar(&targetURL, "target-url", "", "URL to test")
	return cmd
}
