package adapters

import (
	"context"

	"testagent/internal/gateway"
	"testagent/pkg/models"
)

// PerformanceRequest describes a load test.
type PerformanceRequest struct {
	ProjectID       string `json:"project_id"`
	TargetURL       string `json:"target_url"`
	Method          string `json:"method,omitempty"`
	ConcurrentUsers int    `json:"concurrent_users,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// Performance runs load tests and reads their history.
type Performance struct {
	api API
}

// RunTest runs a load test and returns the measured result.
func (p *Performance) RunTest(ctx context.Context, req PerformanceRequest) (models.Record, error) {
	var out models.Record
	if err := p.api.Post(ctx, "/api/performance/test", &gateway.RequestOptions{Body: req}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRuns returns the load test runs for projectID.
func (p *Performance) ListRuns(ctx context.Context, projectID string) ([]models.Record, error) {
	return getRecords(ctx, p.api, "/api/performance/test-runs/"+escape(projectID), nil, "test_runs", "runs")
}
