package model

import "time"

// Repository is a project the bot is installed on.
type Repository struct {
	ID              int64     `json:"id"`
	Path            string    `json:"path"` // full path, e.g. "acme/backend/api"
	ExternalID      int64     `json:"external_id"`
	ProviderBaseURL *string   `json:"provider_base_url,omitempty"`
	AccessToken     string    `json:"-"`
	DefaultBranch   string    `json:"default_branch"`
	Enabled         bool      `json:"enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
