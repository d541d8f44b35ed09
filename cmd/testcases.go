package cmd

import (
	"fmt"

	"testagent/internal/formatting"
	"testagent/internal/history"
	"testagent/pkg/logging"

	"github.com/spf13/cobra"
)

func newTestCasesCmd() *cobra.Command {
	tcCmd := &cobra.Command{
		Use:     "testcases",
		Aliases: []string{"tc", "test-cases"},
		Short:   "Generate and export test cases from requirement documents",
	}
	tcCmd.AddCommand(newTestCasesGenerateCmd(), newTestCasesListCmd(), newTestCasesGetCmd(), newTestCasesExportCmd())
	return tcCmd
}

func newTestCasesGenerateCmd() *cobra.Command {
	var (
		project string
		files   []string
		fields  []string
		save    string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Upload documents and generate test cases",
		Example: `  testagent testcases generate --file frd.pdf --file stories.docx
  testagent testcases generate --file frd.pdf --field test_type=functional --save cases.json`,
		Args: cobra.NoArgs,
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
			parts, release, err := openFiles("files", files)
			if err != nil {
				return err
			}
			defer release()

			s := app.startSpinner("Uploading documents...")
			result, err := app.api.TestCases.Generate(cmd.Context(), projectID, parts, form, uploadProgress(s, "Uploading documents..."))
			stopSpinner(s, err)
			if err != nil {
				return err
			}
			logging.Info("TestCases", "Generated %d test cases for project %s", len(result.Records("test_cases")), projectID)

			if save != "" {
				if err := history.Download(result, save); err != nil {
					return err
				}
				app.info("Saved to %s", save)
			}
			return app.printer.Print(formatting.RecordsView{
				Heading: fmt.Sprintf("Generated test cases (%s)", formatting.OrDash(result.ID())),
				Columns: testCaseColumns(),
				Records: result.Records("test_cases"),
			})
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "Document to upload (repeatable)")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Extra form field key=value (repeatable)")
	cmd.Flags().StringVar(&save, "save", "", "Also write the full response as JSON to this path")
	return cmd
}

func testCaseColumns() []formatting.Column {
	return []formatting.Column{
		formatting.Field("ID", "test_case_id", "id", "testcase_id"),
		formatting.Field("Title", "title", "name", "test_case_name"),
		formatting.Field("Priority", "priority"),
		formatting.Field("Type", "type", "test_type"),
	}
}

func newTestCasesListCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List test case generations of a project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.listDomain(cmd, history.DomainTestCases, project, nil)
		},
	}
	addProjectFlag(cmd, &project)
	return cmd
}

func newTestCasesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <generation-id>",
		Short: "Show the test cases of one generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			generation, err := app.api.TestCases.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if app.printer.Structured() {
				return app.printer.PrintValue(generation)
			}
			if err := app.printer.Print(formatting.RecordDetail("Generation", generation)); err != nil {
				return err
			}
			return app.printer.Print(formatting.RecordsView{
				Heading: "Test cases",
				Columns: testCaseColumns(),
				Records: generation.Records("test_cases"),
			})
		},
	}
}

func newTestCasesExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <generation-id>",
		Short: "Export the test cases of one generation as an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}

			generation, err := app.api.TestCases.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cases := generation.Records("test_cases")
			if len(cases) == 0 {
				return fmt.Errorf("generation %s has no test cases", args[0])
			}

			s := app.startSpinner("Building workbook...")
			data, err := app.api.TestCases.ExportExcel(cmd.Context(), cases)
			stopSpinner(s, err)
			if err != nil {
				return err
			}

			if out == "" {
				out = fmt.Sprintf("test-cases-%s.xlsx", args[0])
			}
			if err := writeOutput(app.out, out, data); err != nil {
				return err
			}
			if out != "-" {
				app.info("Wrote %d test cases to %s", len(cases), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file, '-' for stdout (default test-cases-<id>.xlsx)")
	return cmd
}
