package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"testagent/internal/gateway"
	"testagent/pkg/models"
)

// projectDTO is the backend's wire representation of a project.
type projectDTO struct {
	ID                string      `json:"_id,omitempty"`
	ProjectID         string      `json:"project_id,omitempty"`
	Name              string      `json:"project_name"`
	Description       string      `json:"project_description"`
	Repository        string      `json:"github_repo,omitempty"`
	FRDDocuments      flexStrings `json:"frd_documents,omitempty"`
	FRDDocument       flexStrings `json:"frd_document,omitempty"`
	UserStories       flexStrings `json:"user_stories,omitempty"`
	PostmanCollection string      `json:"postman_collection,omitempty"`
	ProjectURL        string      `json:"project_url,omitempty"`
	UserID            string      `json:"user_id,omitempty"`
	IsActive          *bool       `json:"is_active,omitempty"`
	CreatedAt         string      `json:"created_at,omitempty"`
	UpdatedAt         string      `json:"updated_at,omitempty"`
}

func (d projectDTO) toProject() models.Project {
	p := models.Project{
		ID:                d.ID,
		ProjectID:         d.ProjectID,
		Name:              d.Name,
		Description:       d.Description,
		Repository:        d.Repository,
		FRDDocuments:      []string(d.FRDDocuments),
		UserStories:       []string(d.UserStories),
		PostmanCollection: d.PostmanCollection,
		ProjectURL:        d.ProjectURL,
		UserID:            d.UserID,
		IsActive:          d.IsActive == nil || *d.IsActive,
	}
	if len(p.FRDDocuments) == 0 {
		p.FRDDocuments = []string(d.FRDDocument)
	}
	if p.ID == "" {
		p.ID = p.ProjectID
	}
	if t, ok := models.ParseTimestamp(d.CreatedAt); ok {
		p.CreatedAt = t
	}
	if t, ok := models.ParseTimestamp(d.UpdatedAt); ok {
		p.UpdatedAt = t
	}
	return p
}

// flexStrings decodes a JSON string, array of strings, or null.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one == "" {
			*f = nil
		} else {
			*f = flexStrings{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*f = many
	return nil
}

// ProjectInput carries the editable project fields.
type ProjectInput struct {
	Name              string
	Description       string
	Repository        string
	FRDDocuments      []string
	UserStories       []string
	PostmanCollection string
	ProjectURL        string
	UserID            string
}

// InputFromProject seeds an input from an existing project for editing.
func InputFromProject(p models.Project) ProjectInput {
	return ProjectInput{
		Name:              p.Name,
		Description:       p.Description,
		Repository:        p.Repository,
		FRDDocuments:      append([]string(nil), p.FRDDocuments...),
		UserStories:       append([]string(nil), p.UserStories...),
		PostmanCollection: p.PostmanCollection,
		ProjectURL:        p.ProjectURL,
		UserID:            p.UserID,
	}
}

func (in ProjectInput) toDTO() projectDTO {
	return projectDTO{
		Name:              strings.TrimSpace(in.Name),
		Description:       strings.TrimSpace(in.Description),
		Repository:        strings.TrimSpace(in.Repository),
		FRDDocuments:      flexStrings(in.FRDDocuments),
		UserStories:       flexStrings(in.UserStories),
		PostmanCollection: in.PostmanCollection,
		ProjectURL:        strings.TrimSpace(in.ProjectURL),
		UserID:            in.UserID,
	}
}

// Projects is the project CRUD adapter.
type Projects struct {
	api API
}

// List returns the projects owned by userID, or all visible projects when
// userID is empty.
func (p *Projects) List(ctx context.Context, userID string) ([]models.Project, error) {
	var opts *gateway.RequestOptions
	if userID != "" {
		opts = &gateway.RequestOptions{Query: url.Values{"user_id": {userID}}}
	}
	var raw json.RawMessage
	if err := p.api.Get(ctx, "/api/projects", opts, &raw); err != nil {
		return nil, err
	}
	dtos, err := decodeProjects(raw)
	if err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toProject())
	}
	return out, nil
}

// Get fetches one project.
func (p *Projects) Get(ctx context.Context, id string) (*models.Project, error) {
	var dto projectDTO
	if err := p.api.Get(ctx, "/api/projects/"+escape(id), nil, &dto); err != nil {
		return nil, err
	}
	proj := dto.toProject()
	return &proj, nil
}

// Create stores a new project and returns the backend's view of it.
func (p *Projects) Create(ctx context.Context, in ProjectInput) (*models.Project, error) {
	var dto projectDTO
	if err := p.api.Post(ctx, "/api/projects", &gateway.RequestOptions{Body: in.toDTO()}, &dto); err != nil {
		return nil, err
	}
	proj := dto.toProject()
	return &proj, nil
}

// Update replaces the editable fields of project id.
func (p *Projects) Update(ctx context.Context, id string, in ProjectInput) (*models.Project, error) {
	var dto projectDTO
	if err := p.api.Patch(ctx, "/api/projects/"+escape(id), &gateway.RequestOptions{Body: in.toDTO()}, &dto); err != nil {
		return nil, err
	}
	proj := dto.toProject()
	if proj.Key() == "" {
		proj.ID = id
	}
	return &proj, nil
}

// Delete removes project id.
func (p *Projects) Delete(ctx context.Context, id string) error {
	return p.api.Delete(ctx, "/api/projects/"+escape(id), nil, nil)
}

func decodeProjects(raw json.RawMessage) ([]projectDTO, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []projectDTO
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Projects []projectDTO `json:"projects"`
		Data     []projectDTO `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected projects response: %w", err)
	}
	if wrapped.Projects != nil {
		return wrapped.Projects, nil
	}
	return wrapped.Data, nil
}
