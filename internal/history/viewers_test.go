package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"testagent/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE2EStats(t *testing.T) {
	reports := []models.Record{
		{"id": "r1", "total_tests": float64(5), "passed": float64(4), "failed": float64(1)},
		{"id": "r2", "total_tests": float64(3), "passed": float64(3), "failed": float64(0)},
	}

	got := E2EStats(reports)

	assert.Equal(t, E2ETotals{Reports: 2, TotalTests: 8, Passed: 7, Failed: 1}, got)
	assert.Equal(t, got, E2EStats(reports))
}

func TestE2EStats_LooselyTypedCounters(t *testing.T) {
	reports := []models.Record{
		{"id": "r1", "total_tests": "5", "passed": "4", "failed": float64(1)},
		{"id": "r2", "total_tests": float64(3), "passed": "oops", "failed": nil},
	}

	assert.Equal(t, E2ETotals{Reports: 2, TotalTests: 8, Passed: 4, Failed: 1}, E2EStats(reports))
}

func TestSmokeStats(t *testing.T) {
	runs := []models.Record{
		{"passed": float64(10), "failed": float64(2)},
		{"passed": "5", "failed": float64(1)},
		{"status": "running"},
	}

	assert.Equal(t, SmokeTotals{Runs: 3, Passed: 15, Failed: 3}, SmokeStats(runs))
	assert.Equal(t, SmokeTotals{}, SmokeStats(nil))
}

func TestTestCaseStats(t *testing.T) {
	gens := []models.Record{
		{"test_cases": []any{map[string]any{"id": "1"}, map[string]any{"id": "2"}}},
		{"total_test_cases": float64(4)},
	}

	assert.Equal(t, TestCaseTotals{Generations: 2, TestCases: 6}, TestCaseStats(gens))
}

func TestIntegrationAndRegressionStats(t *testing.T) {
	runs := []models.Record{
		{"status": "passed"},
		{"status": "FAILED"},
		{"success": true},
		{"passed": float64(7), "failed": float64(3), "total_tests": float64(10)},
		{"status": "running"},
	}

	want := RunTotals{Runs: 5, TotalTests: 14, Passed: 9, Failed: 4}
	assert.Equal(t, want, IntegrationStats(runs))
	assert.Equal(t, want, RegressionStats(runs))
}

func TestPerformanceStats(t *testing.T) {
	runs := []models.Record{
		{"avg_response_time": 100.0, "total_requests": float64(50)},
		{"avg_response_time": "200", "total_requests": "50"},
		{"status": "failed"},
	}

	got := PerformanceStats(runs)

	assert.Equal(t, 3, got.Runs)
	assert.Equal(t, 100, got.TotalRequests)
	assert.InDelta(t, 150.0, got.AvgResponseTime, 1e-9)
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, StatusPassed, RunStatus(models.Record{"result": "success"}))
	assert.Equal(t, StatusFailed, RunStatus(models.Record{"success": false}))
	assert.Equal(t, StatusRunning, RunStatus(models.Record{"status": "queued"}))
	assert.Equal(t, StatusUnknown, RunStatus(models.Record{}))
}

func TestViewer_DiscardsSupersededLoad(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	viewer := NewViewer(func(ctx context.Context, projectID string) ([]models.Record, error) {
		if projectID == "old" {
			close(started)
			select {
			case <-release:
				return []models.Record{{"id": "old-run"}}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return []models.Record{{"id": "new-run"}}, nil
	})

	oldErr := make(chan error, 1)
	go func() {
		_, err := viewer.Load(context.Background(), "old")
		oldErr <- err
	}()
	<-started

	records, err := viewer.Load(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, "new-run", records[0].ID())

	select {
	case err := <-oldErr:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded load was not canceled")
	}

	project, current := viewer.Current()
	assert.Equal(t, "new", project)
	require.Len(t, current, 1)
	assert.Equal(t, "new-run", current[0].ID())

	_, ok := viewer.Find("old-run")
	assert.False(t, ok)
	_, ok = viewer.Find("new-run")
	assert.True(t, ok)
}

func TestViewer_ErrorKeepsPreviousRecords(t *testing.T) {
	fail := false
	viewer := NewViewer(func(context.Context, string) ([]models.Record, error) {
		if fail {
			return nil, assert.AnError
		}
		return []models.Record{{"id": "r1"}}, nil
	})

	_, err := viewer.Load(context.Background(), "p-1")
	require.NoError(t, err)

	fail = true
	_, err = viewer.Load(context.Background(), "p-1")
	assert.ErrorIs(t, err, assert.AnError)

	_, records := viewer.Current()
	assert.Len(t, records, 1)
}

func TestExpandState(t *testing.T) {
	e := NewExpandState()

	assert.False(t, e.RunExpanded("r1"))
	assert.True(t, e.ToggleRun("r1"))
	assert.True(t, e.RunExpanded("r1"))
	assert.False(t, e.ToggleRun("r1"))

	assert.True(t, e.ToggleItem("r1", "case-1"))
	assert.True(t, e.ItemExpanded("r1", "case-1"))
	assert.False(t, e.ItemExpanded("r2", "case-1"))

	e.SetRun("r2", true)
	e.Reset()
	assert.False(t, e.RunExpanded("r2"))
	assert.False(t, e.ItemExpanded("r1", "case-1"))
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	record := models.Record{"id": "run/7", "passed": float64(3)}
	path := filepath.Join(dir, "out", DownloadName(DomainSmoke, record))

	require.NoError(t, Download(record, path))

	assert.Equal(t, "smoke-report-run_7.json", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"id\": \"run/7\"")

	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "run/7", back["id"])
}

func TestDownloadName_WithoutID(t *testing.T) {
	assert.Equal(t, "e2e-report-2024-03-15.json", DownloadName(DomainE2E, models.Record{"created_at": "2024-03-15T10:30:00Z"}))
	assert.Equal(t, "e2e-report-run.json", DownloadName(DomainE2E, models.Record{}))
}

func TestStats(t *testing.T) {
	e2e := Stats(DomainE2E, []models.Record{{"total_tests": float64(5)}, {"total_tests": float64(3)}})
	assert.Contains(t, e2e, Stat{Label: "Total tests", Value: "8"})

	perf := Stats(DomainPerformance, []models.Record{{"avg_response_time": 12.5}})
	assert.Contains(t, perf, Stat{Label: "Avg response time", Value: "12.50 ms"})

	reg := Stats(DomainRegression, []models.Record{{"status": "passed"}})
	assert.Contains(t, reg, Stat{Label: "Passed", Value: "1"})
}
