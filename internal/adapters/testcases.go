package adapters

import (
	"context"
	"net/http"

	"testagent/internal/gateway"
	"testagent/pkg/models"
)

// TestCases drives test case generation and its history.
type TestCases struct {
	api API
}

// Generate uploads source documents and asks the backend to produce test
// cases for projectID. fields carries any extra form values (for example
// "test_type" or "additional_context").
func (t *TestCases) Generate(ctx context.Context, projectID string, files []gateway.FormFile, fields map[string]string, progress gateway.ProgressFunc) (models.Record, error) {
	form := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		form[k] = v
	}
	if projectID != "" {
		form["project_id"] = projectID
	}
	var out models.Record
	if err := t.api.Upload(ctx, "/generate-test-cases", form, files, progress, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportExcel renders testCases to a spreadsheet on the backend and returns
// the file contents.
func (t *TestCases) ExportExcel(ctx context.Context, testCases []models.Record) ([]byte, error) {
	body := map[string]any{"test_cases": testCases}
	data, _, err := t.api.Bytes(ctx, http.MethodPost, "/generate-test-cases/excel", &gateway.RequestOptions{
		Body:   body,
		Header: http.Header{"Accept": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, application/octet-stream"}},
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ListForProject returns the test case generations recorded for projectID.
func (t *TestCases) ListForProject(ctx context.Context, projectID string) ([]models.Record, error) {
	return getRecords(ctx, t.api, "/api/testcase-generator/project/"+escape(projectID), nil, "test_cases", "generations")
}

// Get returns one generation including its test cases.
func (t *TestCases) Get(ctx context.Context, testcaseID string) (models.Record, error) {
	var out models.Record
	if err := t.api.Get(ctx, "/api/testcase-generator/"+escape(testcaseID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
