package adapters

import (
	"context"

	"testagent/pkg/models"
)

// E2E reads end-to-end browser test reports.
type E2E struct {
	api API
}

// ListReports returns the reports for projectID.
func (e *E2E) ListReports(ctx context.Context, projectID string) ([]models.Record, error) {
	return getRecords(ctx, e.api, "/e2e-reports", projectQuery(projectID), "reports")
}

// TestResults returns the per-test results of one report.
func (e *E2E) TestResults(ctx context.Context, reportID string) ([]models.Record, error) {
	return getRecords(ctx, e.api, "/e2e-reports/"+escape(reportID)+"/test-results", nil, "test_results", "results")
}

// TestCases returns the test cases a report was generated from.
func (e *E2E) TestCases(ctx context.Context, reportID string) ([]models.Record, error) {
	return getRecords(ctx, e.api, "/e2e-reports/"+escape(reportID)+"/test-cases", nil, "test_cases")
}
