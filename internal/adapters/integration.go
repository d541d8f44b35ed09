package adapters

import (
	"context"
	"encoding/json"

	"testagent/internal/gateway"
	"testagent/pkg/models"
)

// ScenarioRequest asks for integration scenarios derived from a project's
// API description.
type ScenarioRequest struct {
	ProjectID         string `json:"project_id"`
	PostmanCollection string `json:"postman_collection,omitempty"`
	UserStories       string `json:"user_stories,omitempty"`
	BaseURL           string `json:"base_url,omitempty"`
}

// ScriptRequest asks for an executable script for one scenario.
type ScriptRequest struct {
	ProjectID  string `json:"project_id"`
	ScenarioID string `json:"scenario_id"`
	Language   string `json:"language,omitempty"`
}

// RunRequest configures a scenario run.
type RunRequest struct {
	ProjectID   string            `json:"project_id"`
	BaseURL     string            `json:"base_url,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
}

// Integration covers API integration scenario generation and runs.
type Integration struct {
	api API
}

// GenerateScenarios returns the generated scenarios.
func (i *Integration) GenerateScenarios(ctx context.Context, req ScenarioRequest) ([]models.Record, error) {
	var raw json.RawMessage
	if err := i.api.Post(ctx, "/generate-scenarios", &gateway.RequestOptions{Body: req}, &raw); err != nil {
		return nil, err
	}
	return decodeRecords(raw, "scenarios")
}

// GenerateScript returns the backend's script document for one scenario.
func (i *Integration) GenerateScript(ctx context.Context, req ScriptRequest) (models.Record, error) {
	var out models.Record
	if err := i.api.Post(ctx, "/generate-test-script", &gateway.RequestOptions{Body: req}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunScenario executes scenarioID and returns the run record.
func (i *Integration) RunScenario(ctx context.Context, scenarioID string, req RunRequest) (models.Record, error) {
	var out models.Record
	if err := i.api.Post(ctx, "/run-scenario/"+escape(scenarioID), &gateway.RequestOptions{Body: req}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRuns returns the integration runs recorded for projectID.
func (i *Integration) ListRuns(ctx context.Context, projectID string) ([]models.Record, error) {
	return getRecords(ctx, i.api, "/test-runs/"+escape(projectID), nil, "test_runs", "runs")
}
