package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"testagent/internal/adapters"
	"testagent/pkg/logging"
	"testagent/pkg/models"
)

// E2ETotals aggregates end-to-end reports.
type E2ETotals struct {
	Reports    int `json:"reports"`
	TotalTests int `json:"totalTests"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
}

// runCounters is the typed view of the counters a run or report carries.
// Counts sent as strings decode too.
type runCounters struct {
	TotalTests      int      `mapstructure:"total_tests"`
	Passed          int      `mapstructure:"passed"`
	Failed          int      `mapstructure:"failed"`
	TotalRequests   int      `mapstructure:"total_requests"`
	AvgResponseTime *float64 `mapstructure:"avg_response_time"`
}

// countersOf decodes r's counters. Fields that do not decode stay zero.
func countersOf(r models.Record) runCounters {
	var c runCounters
	if err := adapters.DecodeRecord(r, &c); err != nil {
		logging.Debug(subsystem, "Ignoring malformed counters in run %q: %v", r.ID(), err)
	}
	return c
}

// E2EStats sums total_tests, passed and failed over all reports.
func E2EStats(reports []models.Record) E2ETotals {
	t := E2ETotals{Reports: len(reports)}
	for _, r := range reports {
		c := countersOf(r)
		t.TotalTests += c.TotalTests
		t.Passed += c.Passed
		t.Failed += c.Failed
	}
	return t
}

// SmokeTotals aggregates smoke runs.
type SmokeTotals struct {
	Runs   int `json:"runs"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// SmokeStats sums the passed and failed counters of all runs.
func SmokeStats(runs []models.Record) SmokeTotals {
	t := SmokeTotals{Runs: len(runs)}
	for _, r := range runs {
		c := countersOf(r)
		t.Passed += c.Passed
		t.Failed += c.Failed
	}
	return t
}

// TestCaseTotals aggregates test case generations.
type TestCaseTotals struct {
	Generations int `json:"generations"`
	TestCases   int `json:"testCases"`
}

// TestCaseStats counts generations and the test cases they produced. A
// generation's count is its embedded test_cases list, else its
// total_test_cases field.
func TestCaseStats(generations []models.Record) TestCaseTotals {
	t := TestCaseTotals{Generations: len(generations)}
	for _, g := range generations {
		if cases := g.Records("test_cases"); cases != nil {
			t.TestCases += len(cases)
			continue
		}
		t.TestCases += g.Int("total_test_cases")
	}
	return t
}

// RunTotals aggregates runs that each pass or fail as a whole, or carry
// per-test counters.
type RunTotals struct {
	Runs       int `json:"runs"`
	TotalTests int `json:"totalTests"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
}

// IntegrationStats counts integration runs. Runs with passed/failed
// counters contribute those; others count by their status.
func IntegrationStats(runs []models.Record) RunTotals {
	return runTotals(runs)
}

// RegressionStats counts regression runs like IntegrationStats.
func RegressionStats(runs []models.Record) RunTotals {
	return runTotals(runs)
}

func runTotals(runs []models.Record) RunTotals {
	t := RunTotals{Runs: len(runs)}
	for _, r := range runs {
		_, hasPassed := r["passed"]
		_, hasFailed := r["failed"]
		if hasPassed || hasFailed {
			t.Passed += r.Int("passed")
			t.Failed += r.Int("failed")
			if total := r.Int("total_tests"); total > 0 {
				t.TotalTests += total
			} else {
				t.TotalTests += r.Int("passed") + r.Int("failed")
			}
			continue
		}
		t.TotalTests++
		switch RunStatus(r) {
		case StatusPassed:
			t.Passed++
		case StatusFailed:
			t.Failed++
		}
	}
	return t
}

// PerformanceTotals aggregates load test runs.
type PerformanceTotals struct {
	Runs            int     `json:"runs"`
	TotalRequests   int     `json:"totalRequests"`
	AvgResponseTime float64 `json:"avgResponseTime"`
}

// PerformanceStats averages avg_response_time over the runs reporting it.
func PerformanceStats(runs []models.Record) PerformanceTotals {
	t := PerformanceTotals{Runs: len(runs)}
	var sum float64
	var measured int
	for _, r := range runs {
		c := countersOf(r)
		t.TotalRequests += c.TotalRequests
		if c.AvgResponseTime != nil {
			sum += *c.AvgResponseTime
			measured++
		}
	}
	if measured > 0 {
		t.AvgResponseTime = sum / float64(measured)
	}
	return t
}

// Status is a normalized run outcome.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusRunning Status = "running"
	StatusUnknown Status = "unknown"
)

// RunStatus normalizes the status, result or success field of a run.
func RunStatus(r models.Record) Status {
	if v, ok := r["success"].(bool); ok {
		if v {
			return StatusPassed
		}
		return StatusFailed
	}
	s := r.String("status")
	if s == "" {
		s = r.String("result")
	}
	switch strings.ToLower(s) {
	case "passed", "pass", "success", "succeeded", "ok", "completed":
		return StatusPassed
	case "failed", "fail", "failure", "error", "errored":
		return StatusFailed
	case "running", "pending", "in_progress", "queued":
		return StatusRunning
	}
	return StatusUnknown
}

// ErrStale is returned by Viewer.Load when a newer load superseded it.
var ErrStale = errors.New("superseded by a newer load")

// Viewer loads one domain's runs for the current project. Each Load
// supersedes the previous one: the older in-flight request is canceled and
// its result discarded.
type Viewer struct {
	list ListFunc

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	projectID string
	records   []models.Record
}

// NewViewer returns a Viewer over list.
func NewViewer(list ListFunc) *Viewer {
	return &Viewer{list: list}
}

// Load fetches the runs of projectID and makes them current.
func (v *Viewer) Load(ctx context.Context, projectID string) ([]models.Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen
	v.cancel = cancel
	v.mu.Unlock()

	records, err := v.list(ctx, projectID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return nil, ErrStale
	}
	v.cancel = nil
	if err != nil {
		return nil, err
	}
	v.projectID = projectID
	v.records = records
	return records, nil
}

// Current returns the project and runs of the last successful load.
func (v *Viewer) Current() (string, []models.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.projectID, v.records
}

// Find returns the current run with the given id.
func (v *Viewer) Find(id string) (models.Record, bool) {
	_, records := v.Current()
	return FindRecord(records, id)
}

// FindRecord returns the record in records whose ID is id.
func FindRecord(records []models.Record, id string) (models.Record, bool) {
	for _, r := range records {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// ExpandState tracks which runs, and which nested items within a run, are
// expanded.
type ExpandState struct {
	mu    sync.Mutex
	runs  map[string]bool
	items map[string]map[string]bool
}

// NewExpandState returns an all-collapsed state.
func NewExpandState() *ExpandState {
	return &ExpandState{
		runs:  make(map[string]bool),
		items: make(map[string]map[string]bool),
	}
}

// ToggleRun flips runID and returns its new state.
func (e *ExpandState) ToggleRun(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs[runID] = !e.runs[runID]
	return e.runs[runID]
}

// SetRun expands or collapses runID.
func (e *ExpandState) SetRun(runID string, expanded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs[runID] = expanded
}

// RunExpanded reports whether runID is expanded.
func (e *ExpandState) RunExpanded(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs[runID]
}

// ToggleItem flips itemID within runID and returns its new state.
func (e *ExpandState) ToggleItem(runID, itemID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	items, ok := e.items[runID]
	if !ok {
		items = make(map[string]bool)
		e.items[runID] = items
	}
	items[itemID] = !items[itemID]
	return items[itemID]
}

// ItemExpanded reports whether itemID within runID is expanded.
func (e *ExpandState) ItemExpanded(runID, itemID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.items[runID][itemID]
}

// Reset collapses everything, as when the project changes.
func (e *ExpandState) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs = make(map[string]bool)
	e.items = make(map[string]map[string]bool)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DownloadName is the default file name for saving record of domain d.
func DownloadName(d Domain, r models.Record) string {
	id := r.ID()
	if id == "" {
		id = LastRunDate(r)
		if id == NotAvailable {
			id = "run"
		}
	}
	return fmt.Sprintf("%s-report-%s.json", d, unsafeFileChars.ReplaceAllString(id, "_"))
}

// Download writes r to path as indented JSON, creating parent directories.
func Download(r models.Record, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Stat is one labeled figure of a domain's summary strip.
type Stat struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Stats reduces runs with the reduction that fits domain d.
func Stats(d Domain, runs []models.Record) []Stat {
	itoa := func(n int) string { return fmt.Sprintf("%d", n) }
	switch d {
	case DomainE2E:
		t := E2EStats(runs)
		return []Stat{{"Reports", itoa(t.Reports)}, {"Total tests", itoa(t.TotalTests)}, {"Passed", itoa(t.Passed)}, {"Failed", itoa(t.Failed)}}
	case DomainSmoke:
		t := SmokeStats(runs)
		return []Stat{{"Runs", itoa(t.Runs)}, {"Passed", itoa(t.Passed)}, {"Failed", itoa(t.Failed)}}
	case DomainTestCases:
		t := TestCaseStats(runs)
		return []Stat{{"Generations", itoa(t.Generations)}, {"Test cases", itoa(t.TestCases)}}
	case DomainPerformance:
		t := PerformanceStats(runs)
		return []Stat{{"Runs", itoa(t.Runs)}, {"Total requests", itoa(t.TotalRequests)}, {"Avg response time", fmt.Sprintf("%.2f ms", t.AvgResponseTime)}}
	default:
		t := runTotals(runs)
		return []Stat{{"Runs", itoa(t.Runs)}, {"Total tests", itoa(t.TotalTests)}, {"Passed", itoa(t.Passed)}, {"Failed", itoa(t.Failed)}}
	}
}
