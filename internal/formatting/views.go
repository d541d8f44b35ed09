package formatting

import (
	"fmt"
	"sort"
	"strings"

	"testagent/internal/history"
	"testagent/pkg/models"
)

const dateLayout = "2006-01-02"

// ProjectsView lists projects, marking the current one.
type ProjectsView struct {
	Projects []models.Project
	Current  string
}

func (v ProjectsView) Title() string { return "Projects" }
func (v ProjectsView) EmptyMessage() string {
	return "No projects yet. Create one with 'testagent project create'."
}
func (v ProjectsView) Headers() []string {
	return []string{"", "ID", "Name", "Description", "Repository", "Created"}
}

func (v ProjectsView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Projects))
	for i := range v.Projects {
		p := &v.Projects[i]
		marker := ""
		if v.Current != "" && p.Key() == v.Current {
			marker = "*"
		}
		created := "-"
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.Format(dateLayout)
		}
		rows = append(rows, []string{marker, p.Key(), p.Name, OrDash(p.Description), OrDash(p.Repository), created})
	}
	return rows
}

func (v ProjectsView) Value() any { return v.Projects }

// KeyValueView shows one object as field/value rows.
type KeyValueView struct {
	Heading string
	Pairs   [][2]string
	Raw     any
}

func (v KeyValueView) Title() string     { return v.Heading }
func (v KeyValueView) Headers() []string { return []string{"Field", "Value"} }
func (v KeyValueView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Pairs))
	for _, p := range v.Pairs {
		rows = append(rows, []string{p[0], OrDash(p[1])})
	}
	return rows
}
func (v KeyValueView) Value() any { return v.Raw }

// ProjectDetail describes one project.
func ProjectDetail(p models.Project, current bool) KeyValueView {
	pairs := [][2]string{
		{"ID", p.Key()},
		{"Name", p.Name},
		{"Description", p.Description},
		{"Repository", p.Repository},
		{"Project URL", p.ProjectURL},
		{"FRD documents", strings.Join(p.FRDDocuments, ", ")},
		{"User stories", fmt.Sprintf("%d", len(p.UserStories))},
		{"Postman collection", p.PostmanCollection},
		{"Active", fmt.Sprintf("%t", p.IsActive)},
		{"Current", fmt.Sprintf("%t", current)},
	}
	if !p.CreatedAt.IsZero() {
		pairs = append(pairs, [2]string{"Created", p.CreatedAt.Format("2006-01-02 15:04")})
	}
	if !p.UpdatedAt.IsZero() {
		pairs = append(pairs, [2]string{"Updated", p.UpdatedAt.Format("2006-01-02 15:04")})
	}
	return KeyValueView{Heading: p.Name, Pairs: pairs, Raw: p}
}

// UserDetail describes the signed-in user.
func UserDetail(u models.UserProfile) KeyValueView {
	return KeyValueView{
		Heading: "Signed in",
		Pairs: [][2]string{
			{"ID", u.ID},
			{"Email", u.Email},
			{"Name", u.Name},
			{"Provider", u.Provider},
		},
		Raw: u,
	}
}

// RecordDetail shows the scalar fields of a record, sorted by key; nested
// lists are summarized by length.
func RecordDetail(heading string, r models.Record) KeyValueView {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		switch val := r[k].(type) {
		case []any:
			pairs = append(pairs, [2]string{k, fmt.Sprintf("[%d items]", len(val))})
		case map[string]any:
			pairs = append(pairs, [2]string{k, fmt.Sprintf("{%d fields}", len(val))})
		default:
			pairs = append(pairs, [2]string{k, r.String(k)})
		}
	}
	return KeyValueView{Heading: heading, Pairs: pairs, Raw: r}
}

// Column extracts one table column from a record.
type Column struct {
	Header string
	Value  func(models.Record) string
}

// Field is a column reading the first present key.
func Field(header string, keys ...string) Column {
	return Column{Header: header, Value: func(r models.Record) string {
		for _, k := range keys {
			if s := r.String(k); s != "" {
				return s
			}
		}
		return ""
	}}
}

// RecordsView lists run records with chosen columns.
type RecordsView struct {
	Heading string
	Columns []Column
	Records []models.Record
}

// DefaultRunColumns fits every domain's run list.
func DefaultRunColumns() []Column {
	return []Column{
		{Header: "ID", Value: models.Record.ID},
		Field("Name", "name", "title", "test_name", "scenario_name", "report_name"),
		{Header: "Status", Value: func(r models.Record) string { return string(history.RunStatus(r)) }},
		{Header: "Date", Value: history.LastRunDate},
	}
}

func (v RecordsView) Title() string { return v.Heading }
func (v RecordsView) Headers() []string {
	out := make([]string, len(v.columns()))
	for i, c := range v.columns() {
		out[i] = c.Header
	}
	return out
}

func (v RecordsView) Rows() [][]string {
	cols := v.columns()
	rows := make([][]string, 0, len(v.Records))
	for _, r := range v.Records {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = OrDash(c.Value(r))
		}
		rows = append(rows, row)
	}
	return rows
}

func (v RecordsView) Value() any {
	if v.Records == nil {
		return []models.Record{}
	}
	return v.Records
}

func (v RecordsView) columns() []Column {
	if len(v.Columns) == 0 {
		return DefaultRunColumns()
	}
	return v.Columns
}

// SummaryView is the cross-domain "agents used" table.
type SummaryView struct {
	Summary history.Summary
}

func (v SummaryView) Title() string { return "Agents used" }
func (v SummaryView) EmptyMessage() string {
	return "No test runs recorded for this project yet."
}
func (v SummaryView) Headers() []string {
	return []string{"", "Agent", "Total", "Last run"}
}

func (v SummaryView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Summary.Agents))
	for _, a := range v.Summary.Agents {
		rows = append(rows, []string{a.Icon, a.Name, fmt.Sprintf("%d", a.TotalTests), a.LastRun})
	}
	return rows
}

func (v SummaryView) Value() any { return v.Summary }

// FailuresView lists domains whose history could not be loaded.
type FailuresView struct {
	Failures []history.DomainFailure
}

func (v FailuresView) Title() string        { return "Unavailable agents" }
func (v FailuresView) EmptyMessage() string { return "All agents responded." }
func (v FailuresView) Headers() []string    { return []string{"Agent", "Error"} }
func (v FailuresView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Failures))
	for _, f := range v.Failures {
		rows = append(rows, []string{f.Name, f.Message})
	}
	return rows
}
func (v FailuresView) Value() any { return v.Failures }

// StatsView is a domain's summary strip.
type StatsView struct {
	Heading string
	Stats   []history.Stat
}

func (v StatsView) Title() string     { return v.Heading }
func (v StatsView) Headers() []string { return []string{"Metric", "Value"} }
func (v StatsView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Stats))
	for _, s := range v.Stats {
		rows = append(rows, []string{s.Label, s.Value})
	}
	return rows
}
func (v StatsView) Value() any { return v.Stats }
