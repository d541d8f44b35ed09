package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"testagent/internal/formatting"
	"testagent/internal/gateway"
	"testagent/internal/history"
	"testagent/pkg/models"

	"github.com/spf13/cobra"
)

func addProjectFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "project", "p", "", "Project id (default: the current project)")
}

// domainRuns is the structured output of a domain listing.
type domainRuns struct {
	ProjectID string          `json:"project_id" yaml:"project_id"`
	Domain    history.Domain  `json:"domain" yaml:"domain"`
	Stats     []history.Stat  `json:"stats" yaml:"stats"`
	Runs      []models.Record `json:"runs" yaml:"runs"`
}

// listDomain prints the stats strip and run list of one domain.
func (a *application) listDomain(cmd *cobra.Command, d history.Domain, project string, columns []formatting.Column) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	projectID, err := a.projectID(project)
	if err != nil {
		return err
	}
	source, ok := history.Lookup(history.Sources(a.api), d)
	if !ok {
		return usageErrorf("unknown domain %q", d)
	}

	runs, err := source.List(cmd.Context(), projectID)
	if err != nil {
		return err
	}
	return a.printRuns(d, projectID, runs, columns)
}

func (a *application) printRuns(d history.Domain, projectID string, runs []models.Record, columns []formatting.Column) error {
	stats := history.Stats(d, runs)
	if a.printer.Structured() {
		if runs == nil {
			runs = []models.Record{}
		}
		return a.printer.PrintValue(domainRuns{ProjectID: projectID, Domain: d, Stats: stats, Runs: runs})
	}

	info := history.Info(d)
	if err := a.printer.Print(formatting.StatsView{Heading: info.Icon + " " + info.Name, Stats: stats}); err != nil {
		return err
	}
	return a.printer.Print(formatting.RecordsView{Heading: "Runs", Columns: columns, Records: runs})
}

// parseFields turns repeated key=value flags into a map.
func parseFields(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, usageErrorf("invalid field %q: expected key=value", pair)
		}
		fields[key] = value
	}
	return fields, nil
}

// openFiles opens every path as a multipart part named field. release
// releases all of them.
func openFiles(field string, paths []string) (files []gateway.FormFile, release func(), err error) {
	var closers []io.Closer
	release = func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	for _, path := range paths {
		f, c, err := gateway.FileFromPath(field, path)
		if err != nil {
			release()
			return nil, func() {}, err
		}
		files = append(files, f)
		closers = append(closers, c)
	}
	return files, release, nil
}

// writeOutput writes data to path, or to w when path is "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
