// Package models holds the client-side view models shared by the session
// store, the API adapters and the CLI. Field names are the UI names; the
// backend's snake_case documents are translated in internal/adapters.
package models

import "time"

// UserProfile is the authenticated user as returned by /auth/me.
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Picture   string `json:"picture,omitempty"`
	Provider  string `json:"provider,omitempty"`
	GitHubID  string `json:"githubId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Project is a testing-agent project. Exactly one project is current at a time.
type Project struct {
	ID                string    `json:"id"`
	ProjectID         string    `json:"projectId"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Repository        string    `json:"repository,omitempty"`
	FRDDocuments      []string  `json:"frdDocuments,omitempty"`
	UserStories       []string  `json:"userStories,omitempty"`
	PostmanCollection string    `json:"postmanCollection,omitempty"`
	ProjectURL        string    `json:"projectUrl,omitempty"`
	UserID            string    `json:"userId,omitempty"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt,omitempty"`
}

// Key returns the identifier the backend expects in project-scoped paths.
// Older documents only carry the database id.
func (p *Project) Key() string {
	if p == nil {
		return ""
	}
	if p.ProjectID != "" {
		return p.ProjectID
	}
	return p.ID
}

// Record is one backend run record. Shapes differ per domain so records are
// kept as decoded JSON objects and read through typed accessors.
type Record map[string]any
