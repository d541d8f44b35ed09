package history

import (
	"context"

	"testagent/internal/adapters"
	"testagent/pkg/logging"
	"testagent/pkg/models"
)

// NotAvailable is shown when a run has no usable timestamp.
const NotAvailable = "N/A"

const subsystem = "History"

// ListFunc returns one domain's runs for a project, newest first.
type ListFunc func(ctx context.Context, projectID string) ([]models.Record, error)

// Source binds a domain to the call that lists its runs.
type Source struct {
	Domain Domain
	List   ListFunc
}

// Sources wires every domain to its adapter.
func Sources(set *adapters.Set) []Source {
	return []Source{
		{Domain: DomainTestCases, List: set.TestCases.ListForProject},
		{Domain: DomainIntegration, List: set.Integration.ListRuns},
		{Domain: DomainE2E, List: set.E2E.ListReports},
		{Domain: DomainRegression, List: set.Regression.List},
		{Domain: DomainSmoke, List: set.Smoke.ListForProject},
		{Domain: DomainPerformance, List: set.Performance.ListRuns},
	}
}

// Lookup returns the source for d.
func Lookup(sources []Source, d Domain) (Source, bool) {
	for _, s := range sources {
		if s.Domain == d {
			return s, true
		}
	}
	return Source{}, false
}

// AgentSummary is one row of the "agents used" view.
type AgentSummary struct {
	ID         Domain `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Icon       string `json:"icon" yaml:"icon"`
	TotalTests int    `json:"totalTests" yaml:"totalTests"`
	LastRun    string `json:"lastRun" yaml:"lastRun"`
}

// DomainFailure is a domain whose history could not be loaded.
type DomainFailure struct {
	Domain  Domain `json:"domain" yaml:"domain"`
	Name    string `json:"name" yaml:"name"`
	Message string `json:"message" yaml:"message"`
	Err     error  `json:"-" yaml:"-"`
}

// Summary is the cross-domain view for one project.
type Summary struct {
	ProjectID string          `json:"projectId" yaml:"projectId"`
	Agents    []AgentSummary  `json:"agents" yaml:"agents"`
	Failures  []DomainFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Aggregator builds a Summary from independent domain sources.
type Aggregator struct {
	sources []Source
}

// NewAggregator returns an aggregator over sources.
func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{sources: sources}
}

// Summarize lists every domain concurrently. Domains with at least one run
// become an AgentSummary, in completion order; failing domains are logged
// and returned in Failures. It never fails as a whole.
func (a *Aggregator) Summarize(ctx context.Context, projectID string) Summary {
	summary := Summary{ProjectID: projectID, Agents: []AgentSummary{}}
	if projectID == "" {
		return summary
	}

	tasks := make([]Task[[]models.Record], 0, len(a.sources))
	for _, src := range a.sources {
		tasks = append(tasks, Task[[]models.Record]{
			Name: string(src.Domain),
			Run: func(ctx context.Context) ([]models.Record, error) {
				return src.List(ctx, projectID)
			},
		})
	}

	outcomes, failures := Settle(ctx, tasks)

	for _, o := range outcomes {
		if len(o.Value) == 0 {
			continue
		}
		info := Info(Domain(o.Name))
		summary.Agents = append(summary.Agents, AgentSummary{
			ID:         info.Domain,
			Name:       info.Name,
			Icon:       info.Icon,
			TotalTests: len(o.Value),
			LastRun:    LastRunDate(o.Value[0]),
		})
	}

	for _, f := range failures {
		info := Info(Domain(f.Name))
		logging.Warn(subsystem, "Failed to load %s history for project %s: %v", info.Name, projectID, f.Err)
		summary.Failures = append(summary.Failures, DomainFailure{
			Domain:  info.Domain,
			Name:    info.Name,
			Message: f.Err.Error(),
			Err:     f.Err,
		})
	}

	logging.Debug(subsystem, "Summarized project %s: %d agents, %d failures", projectID, len(summary.Agents), len(summary.Failures))
	return summary
}

// LastRunDate returns the calendar date (YYYY-MM-DD) of r's creation
// timestamp as written by the backend, or NotAvailable.
func LastRunDate(r models.Record) string {
	if t, ok := r.CreatedAt(); ok {
		return t.Format("2006-01-02")
	}
	raw := r.Timestamp()
	if len(raw) >= 10 {
		if _, ok := models.ParseTimestamp(raw[:10]); ok {
			return raw[:10]
		}
	}
	return NotAvailable
}
