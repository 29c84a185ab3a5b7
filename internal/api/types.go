package api

import (
	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/cache"
)

// CatalogMeta tells the client where the templates came from.
type CatalogMeta struct {
	Origin      cache.Tier `json:"origin"`
	Timestamp   int64      `json:"timestamp,omitempty"`
	Degraded    bool       `json:"degraded"`
	RateLimited bool       `json:"rateLimited"`
	Warning     string     `json:"warning,omitempty"`
}

// TemplateListResponse is the response for GET /api/templates and POST /api/refresh.
type TemplateListResponse struct {
	Templates  promptstash.Collection `json:"templates"`
	Categories []string               `json:"categories"`
	Tags       []string               `json:"tags"`
	Total      int                    `json:"total"`
	Catalog    CatalogMeta            `json:"catalog"`
}

// TemplateResponse is a single template with the user's saved state.
type TemplateResponse struct {
	Template    promptstash.Template `json:"template"`
	SavedValues map[string]string    `json:"savedValues"`
	Missing     []string             `json:"missing"`
	Catalog     CatalogMeta          `json:"catalog"`
}

// RenderRequest is the body of POST /api/templates/{id}/render.
type RenderRequest struct {
	Values map[string]string `json:"values"`
	// Save stores Values as the template's saved values.
	Save bool `json:"save,omitempty"`
}

// RenderResponse is the live preview of a template.
type RenderResponse struct {
	Text    string   `json:"text"`
	Missing []string `json:"missing"`
	Ready   bool     `json:"ready"`
}

// SendRequest is the body of POST /api/templates/{id}/send. An empty Tool only copies.
type SendRequest struct {
	Values map[string]string `json:"values"`
	Tool   string            `json:"tool,omitempty"`
}

// UpdateVariableRequest is the body of PATCH /api/templates/{id}/variables.
type UpdateVariableRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProfileBody is the request and response body of /api/profile.
type ProfileBody struct {
	Profile string `json:"profile"`
}

// IDListResponse lists template ids.
type IDListResponse struct {
	IDs []string `json:"ids"`
}

// FavoriteResponse reports the favorite state of one template.
type FavoriteResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
}
