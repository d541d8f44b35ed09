package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"testagent/internal/history"
	"testagent/pkg/models"
)

//go:embed templates/report.md.tmpl
var defaultTemplate string

// hiddenFields are shown elsewhere in a run section or are too noisy.
var hiddenFields = map[string]bool{
	"_id": true, "id": true, "created_at": true, "timestamp": true,
	"status": true, "result": true, "success": true, "user_id": true,
}

// Data is the template input.
type Data struct {
	ProjectID   string
	ProjectName string
	Domain      history.DomainInfo
	Stats       []history.Stat
	Runs        []models.Record
	GeneratedAt time.Time
	// IncludeJSON appends each run's raw JSON.
	IncludeJSON bool
}

// NewData assembles template input for the runs of domain d.
func NewData(project *models.Project, d history.Domain, runs []models.Record) Data {
	data := Data{
		Domain:      history.Info(d),
		Stats:       history.Stats(d, runs),
		Runs:        runs,
		GeneratedAt: time.Now(),
	}
	if project != nil {
		data.ProjectID = project.Key()
		data.ProjectName = project.Name
	}
	return data
}

// Field is a key/value pair of a run.
type Field struct {
	Key   string
	Value string
}

// Engine renders reports with one parsed template.
type Engine struct {
	tmpl *template.Template
}

// New returns an engine with the built-in template.
func New() (*Engine, error) {
	return Parse("report", defaultTemplate)
}

// Parse returns an engine for a custom template text.
func Parse(name, text string) (*Engine, error) {
	tmpl, err := template.New(name).Funcs(funcMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template %s: %w", name, err)
	}
	return &Engine{tmpl: tmpl}, nil
}

// ParseFile returns an engine for the template stored at path.
func ParseFile(path string) (*Engine, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report template: %w", err)
	}
	return Parse(path, string(text))
}

// Render writes the report for data to w.
func (e *Engine) Render(w io.Writer, data Data) error {
	if err := e.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// RenderString renders the report to a string.
func (e *Engine) RenderString(data Data) (string, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["lastRun"] = history.LastRunDate
	funcs["status"] = history.RunStatus
	funcs["runTitle"] = runTitle
	funcs["scalars"] = scalars
	funcs["nested"] = nested
	return funcs
}

func runTitle(r models.Record) string {
	for _, k := range []string{"name", "title", "test_name", "scenario_name", "report_name"} {
		if s := r.String(k); s != "" {
			return s
		}
	}
	if id := r.ID(); id != "" {
		return id
	}
	return "Run"
}

// scalars returns r's non-nested fields sorted by key.
func scalars(r models.Record) []Field {
	var out []Field
	for k, v := range r {
		if hiddenFields[k] || v == nil {
			continue
		}
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		out = append(out, Field{Key: k, Value: r.String(k)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// nested returns the sizes of r's list fields sorted by key.
func nested(r models.Record) []Field {
	var out []Field
	for k, v := range r {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		out = append(out, Field{Key: k, Value: fmt.Sprintf("%d", len(list))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
