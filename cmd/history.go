package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"testagent/internal/events"
	"testagent/internal/formatting"
	"testagent/internal/gateway"
	"testagent/internal/history"
	"testagent/internal/report"
	"testagent/pkg/logging"
	"testagent/pkg/models"

	"github.com/spf13/cobra"
)

type historyOptions struct {
	project      string
	showFailures bool
	watch        bool
	interval     time.Duration
}

func newHistoryCmd() *cobra.Command {
	opts := &historyOptions{}
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Summarize and browse the test history of a project",
		Long: `Without a subcommand, history lists every testing agent that has runs in
the project with its run count and last run date. Agents whose history could
not be loaded are left out; --show-failures lists them.

Domains: testcases, integration, e2e, regression, smoke, performance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			if opts.watch {
				return app.watchSummary(cmd.Context(), opts)
			}
			return app.printSummary(cmd.Context(), opts)
		},
	}
	addProjectFlag(historyCmd, &opts.project)
	historyCmd.Flags().BoolVar(&opts.showFailures, "show-failures", false, "Also list agents whose history failed to load")
	historyCmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Refresh periodically and follow session changes")
	historyCmd.Flags().DurationVar(&opts.interval, "interval", 30*time.Second, "Refresh interval for --watch")

	historyCmd.AddCommand(newHistoryShowCmd(), newHistoryDownloadCmd(), newHistoryReportCmd())
	return historyCmd
}

func (a *application) printSummary(ctx context.Context, opts *historyOptions) error {
	projectID, err := a.projectID(opts.project)
	if err != nil {
		return err
	}

	summary := history.NewAggregator(history.Sources(a.api)...).Summarize(ctx, projectID)
	if !a.session.Authenticated() {
		for _, f := range summary.Failures {
			if errors.Is(f.Err, gateway.ErrUnauthorized) {
				return &AuthRequiredError{Reason: "session expired"}
			}
		}
	}
	if !opts.showFailures {
		failed := len(summary.Failures)
		summary.Failures = nil
		if err := a.printer.Print(formatting.SummaryView{Summary: summary}); err != nil {
			return err
		}
		if failed > 0 {
			a.info("%d agent(s) could not be loaded; rerun with --show-failures for details", failed)
		}
		return nil
	}

	if a.printer.Structured() {
		return a.printer.PrintValue(summary)
	}
	if err := a.printer.Print(formatting.SummaryView{Summary: summary}); err != nil {
		return err
	}
	if len(summary.Failures) > 0 {
		return a.printer.Print(formatting.FailuresView{Failures: summary.Failures})
	}
	return nil
}

// watchSummary reprints the summary every interval until ctx is done. The
// session directory is watched so a project switch in another terminal is
// picked up, and a logout elsewhere ends the watch.
func (a *application) watchSummary(ctx context.Context, opts *historyOptions) error {
	if opts.interval < time.Second {
		return usageErrorf("--interval must be at least 1s")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loggedOut := make(chan struct{})
	var once sync.Once
	unsubscribe := a.session.OnLogout(func(ev events.LogoutEvent) {
		if ev.Reason == events.LogoutExternal {
			once.Do(func() { close(loggedOut) })
		}
	})
	defer unsubscribe()

	go func() {
		if err := a.session.Watch(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
			logging.Warn("History", "Not following session changes: %v", err)
		}
	}()

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for {
		if err := a.printSummary(ctx, opts); err != nil {
			return err
		}
		a.info("Refreshing every %s, press Ctrl+C to stop", opts.interval)

		select {
		case <-ctx.Done():
			return nil
		case <-loggedOut:
			return &AuthRequiredError{Reason: "signed out in another session"}
		case <-ticker.C:
		}
	}
}

type showOptions struct {
	project string
	expand  bool
	items   []string
}

func newHistoryShowCmd() *cobra.Command {
	opts := &showOptions{}
	cmd := &cobra.Command{
		Use:   "show <domain> [run-id]",
		Short: "Show the runs of one domain, or one run in detail",
		Long: `Show the stats and runs of one testing domain. With a run id, show that
run's fields; --expand adds its nested lists (test results, test cases) and
--item shows the full detail of nested entries.`,
		Example: `  testagent history show e2e
  testagent history show e2e 65f0c2 --expand
  testagent history show smoke run-7 --expand --item login-page`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			d, err := parseDomainArg(args[0])
			if err != nil {
				return err
			}
			projectID, err := app.projectID(opts.project)
			if err != nil {
				return err
			}

			viewer, err := app.viewer(d)
			if err != nil {
				return err
			}
			runs, err := viewer.Load(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return app.printRuns(d, projectID, runs, nil)
			}

			run, ok := viewer.Find(args[1])
			if !ok {
				return fmt.Errorf("no %s run %q in project %s", d, args[1], projectID)
			}
			state := history.NewExpandState()
			state.SetRun(args[1], opts.expand)
			for _, item := range opts.items {
				state.ToggleItem(args[1], item)
			}
			return app.printRun(d, args[1], run, state)
		},
	}
	addProjectFlag(cmd, &opts.project)
	cmd.Flags().BoolVarP(&opts.expand, "expand", "e", false, "Include the run's nested lists")
	cmd.Flags().StringArrayVar(&opts.items, "item", nil, "Show the detail of a nested item by id (repeatable)")
	return cmd
}

func parseDomainArg(s string) (history.Domain, error) {
	d, err := history.ParseDomain(s)
	if err != nil {
		return "", usageErrorf("%v", err)
	}
	return d, nil
}

func (a *application) viewer(d history.Domain) (*history.Viewer, error) {
	source, ok := history.Lookup(history.Sources(a.api), d)
	if !ok {
		return nil, usageErrorf("unknown domain %q", d)
	}
	return history.NewViewer(source.List), nil
}

func (a *application) printRun(d history.Domain, runID string, run models.Record, state *history.ExpandState) error {
	if a.printer.Structured() {
		return a.printer.PrintValue(run)
	}

	info := history.Info(d)
	heading := fmt.Sprintf("%s %s run %s (%s)", info.Icon, info.Name, runID, history.RunStatus(run))
	if err := a.printer.Print(formatting.RecordDetail(heading, run)); err != nil {
		return err
	}
	if !state.RunExpanded(runID) {
		return nil
	}

	for _, key := range nestedKeys(run) {
		items := run.Records(key)
		if err := a.printer.Print(formatting.RecordsView{Heading: key, Records: items}); err != nil {
			return err
		}
		for _, item := range items {
			if id := item.ID(); id != "" && state.ItemExpanded(runID, id) {
				if err := a.printer.Print(formatting.RecordDetail(key+" "+id, item)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// nestedKeys returns the run's fields that hold lists of objects, sorted.
func nestedKeys(r models.Record) []string {
	var keys []string
	for k := range r {
		if len(r.Records(k)) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func newHistoryDownloadCmd() *cobra.Command {
	var (
		project string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "download <domain> <run-id>",
		Short: "Save one run as a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			d, err := parseDomainArg(args[0])
			if err != nil {
				return err
			}
			projectID, err := app.projectID(project)
			if err != nil {
				return err
			}

			viewer, err := app.viewer(d)
			if err != nil {
				return err
			}
			if _, err := viewer.Load(cmd.Context(), projectID); err != nil {
				return err
			}
			run, ok := viewer.Find(args[1])
			if !ok {
				return fmt.Errorf("no %s run %q in project %s", d, args[1], projectID)
			}

			path := out
			if path == "" {
				path = history.DownloadName(d, run)
			}
			if err := history.Download(run, path); err != nil {
				return err
			}
			app.printer.Message("Saved %s", path)
			return nil
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVarP(&out, "out", "O", "", "Output path (default <domain>-report-<id>.json)")
	return cmd
}

func newHistoryReportCmd() *cobra.Command {
	var (
		project     string
		templateArg string
		includeJSON bool
		out         string
	)
	cmd := &cobra.Command{
		Use:   "report <domain>",
		Short: "Render a Markdown report of a domain's runs",
		Long: `Render the runs of one domain as a Markdown report. A custom Go
text/template can be given with --template; it receives the project, the
domain, its stats and the runs, and may use the sprig function library.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			d, err := parseDomainArg(args[0])
			if err != nil {
				return err
			}
			projectID, err := app.projectID(project)
			if err != nil {
				return err
			}

			var engine *report.Engine
			if templateArg != "" {
				engine, err = report.ParseFile(templateArg)
			} else {
				engine, err = report.New()
			}
			if err != nil {
				return usageErrorf("%v", err)
			}

			viewer, err := app.viewer(d)
			if err != nil {
				return err
			}
			runs, err := viewer.Load(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			data := report.NewData(app.projectFor(projectID), d, runs)
			data.IncludeJSON = includeJSON

			if out == "" || out == "-" {
				return engine.Render(app.out, data)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := engine.Render(f, data); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			app.info("Wrote %s", out)
			return nil
		},
	}
	addProjectFlag(cmd, &project)
	cmd.Flags().StringVar(&templateArg, "template", "", "Custom report template file")
	cmd.Flags().BoolVar(&includeJSON, "json", false, "Append each run's raw JSON")
	cmd.Flags().StringVarP(&out, "out", "O", "", "Output file (default stdout)")
	return cmd
}
