package adapters

import (
	"context"
	"net/http"

	"testagent/internal/gateway"
	"testagent/pkg/models"
)

// RegressionRequest triggers a regression suite.
type RegressionRequest struct {
	ProjectID string   `json:"project_id"`
	BaseURL   string   `json:"base_url,omitempty"`
	Suites    []string `json:"suites,omitempty"`
}

// Regression lists and triggers regression runs.
type Regression struct {
	api API
}

// List returns the regression runs for projectID.
func (r *Regression) List(ctx context.Context, projectID string) ([]models.Record, error) {
	return getRecords(ctx, r.api, "/regression-tests", projectQuery(projectID), "test_runs", "runs")
}

// Trigger starts a regression run and forwards each streamed progress line
// to onLine until the backend closes the stream. Returning an error from
// onLine stops reading and is returned unchanged.
func (r *Regression) Trigger(ctx context.Context, req RegressionRequest, onLine func(string) error) error {
	return r.api.Stream(ctx, http.MethodPost, "/trigger-regression", &gateway.RequestOptions{Body: req}, func(ev gateway.StreamEvent) error {
		if onLine == nil {
			return nil
		}
		return onLine(ev.Data)
	})
}
