package adapters

import (
	"context"

	"testagent/internal/gateway"
	"testagent/pkg/models"
)

// SmokeRunRequest configures a smoke run against a deployed target.
type SmokeRunRequest struct {
	ProjectID string   `json:"project_id"`
	TargetURL string   `json:"target_url"`
	Tests     []string `json:"tests,omitempty"`
}

// DockerRunRequest runs the generated smoke suite inside a container.
type DockerRunRequest struct {
	ProjectID string `json:"project_id"`
	Image     string `json:"image,omitempty"`
	TargetURL string `json:"target_url,omitempty"`
}

// Smoke covers smoke test generation, execution and history.
type Smoke struct {
	api API
}

// ListForProject returns the smoke runs for projectID.
func (s *Smoke) ListForProject(ctx context.Context, projectID string) ([]models.Record, error) {
	return getRecords(ctx, s.api, "/api/smoke-tests/project/"+escape(projectID), nil, "smoke_tests", "test_runs", "runs")
}

// Get returns a single smoke run.
func (s *Smoke) Get(ctx context.Context, id string) (models.Record, error) {
	var out models.Record
	if err := s.api.Get(ctx, "/api/smoke-tests/"+escape(id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Run executes a smoke suite and returns its result record.
func (s *Smoke) Run(ctx context.Context, req SmokeRunRequest) (models.Record, error) {
	var out models.Record
	if err := s.api.Post(ctx, "/smoke/run", &gateway.RequestOptions{Body: req}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Generate uploads documents and returns the generated smoke suite.
func (s *Smoke) Generate(ctx context.Context, files []gateway.FormFile, fields map[string]string, progress gateway.ProgressFunc) (models.Record, error) {
	var out models.Record
	if err := s.api.Upload(ctx, "/generate_smoke_tests", fields, files, progress, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RunDocker executes the smoke suite in a container.
func (s *Smoke) RunDocker(ctx context.Context, req DockerRunRequest) (models.Record, error) {
	var out models.Record
	if err := s.api.Post(ctx, "/run_smoke_docker_tests", &gateway.RequestOptions{Body: req}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
