package store

import (
	"context"
	"time"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

// Automation statuses.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Automation is the persisted representation of an automation flow.
// Definition holds the serialized graph handed over by the editor on save.
type Automation struct {
	ID          string                      `json:"id"`
	Name        string                      `json:"name"`
	Description string                      `json:"description,omitempty"`
	Status      string                      `json:"status"`
	Definition  schema.AutomationDefinition `json:"definition"`
	Revision    int                         `json:"revision"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// Revision is an append-only snapshot of an automation's definition at a
// past save. Nothing is ever rewritten; each save appends.
type Revision struct {
	AutomationID string                      `json:"automation_id"`
	Revision     int                         `json:"revision"`
	Definition   schema.AutomationDefinition `json:"definition"`
	SavedAt      time.Time                   `json:"saved_at"`
}

// ListFilter narrows ListAutomations results.
type ListFilter struct {
	Status string // empty matches all
	Limit  int    // 0 means no limit
}

// Store defines the persistence collaborator contract. Saves are
// last-write-wins; no optimistic-concurrency token is part of this core.
// All implementations must be safe for concurrent use.
type Store interface {
	CreateAutomation(ctx context.Context, a *Automation) error
	GetAutomation(ctx context.Context, id string) (*Automation, error)
	// UpdateAutomation replaces name, description and definition, bumps the
	// revision counter and appends a revision row.
	UpdateAutomation(ctx context.Context, a *Automation) error
	SetStatus(ctx context.Context, id, status string) error
	ListAutomations(ctx context.Context, filter ListFilter) ([]*Automation, error)
	DeleteAutomation(ctx context.Context, id string) error

	ListRevisions(ctx context.Context, automationID string) ([]*Revision, error)

	Migrate(ctx context.Context) error
	Close() error
}

func notFound(id string) error {
	return schema.NewErrorf(schema.ErrCodeNotFound, "automation %q not found", id)
}
