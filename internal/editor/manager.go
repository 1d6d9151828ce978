package editor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/marqtools/flowbuilder/internal/catalog"
	"github.com/marqtools/flowbuilder/internal/expressions"
	"github.com/marqtools/flowbuilder/internal/graph"
	"github.com/marqtools/flowbuilder/internal/store"
	"github.com/marqtools/flowbuilder/internal/validation"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

// Manager tracks live editor sessions. Sessions are in-memory only; closing
// one discards any unsaved work.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	catalog   catalog.Lookup
	validator *validation.GraphValidator
	engines   *expressions.Engines
	logger    *slog.Logger
}

// NewManager creates a session manager sharing one catalog, validator and
// expression engine set across all sessions.
func NewManager(cat catalog.Lookup, validator *validation.GraphValidator, engines *expressions.Engines, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		catalog:   cat,
		validator: validator,
		engines:   engines,
		logger:    logger,
	}
}

func (m *Manager) newSession(automationID string, meta graph.Meta, g *graph.Graph) *Session {
	s := &Session{
		id:           uuid.NewString(),
		automationID: automationID,
		meta:         meta,
		g:            g,
		state:        StateIdle,
		catalog:      m.catalog,
		validator:    m.validator,
		engines:      m.engines,
		logger:       m.logger,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s
}

// Create starts a session over a new, empty automation.
func (m *Manager) Create(meta graph.Meta) *Session {
	s := m.newSession("", meta, graph.New())
	m.logger.Info("session created", slog.String("session_id", s.id))
	return s
}

// CreateFromDefinition starts a session over an imported definition. The
// definition is rebuilt whole or not at all; a malformed payload leaves no
// session behind.
func (m *Manager) CreateFromDefinition(def *schema.AutomationDefinition) (*Session, error) {
	g, err := graph.FromDefinition(def, m.catalog)
	if err != nil {
		return nil, err
	}
	meta := graph.Meta{Name: def.Name, Description: def.Description}
	s := m.newSession("", meta, g)
	m.logger.Info("session created from definition", slog.String("session_id", s.id),
		slog.Int("nodes", g.NodeCount()), slog.Int("edges", g.EdgeCount()))
	return s, nil
}

// Open loads a stored automation and starts a session editing it. Saves
// from the session update the same automation in place.
func (m *Manager) Open(ctx context.Context, st store.Store, automationID string) (*Session, error) {
	a, err := st.GetAutomation(ctx, automationID)
	if err != nil {
		return nil, err
	}
	g, err := graph.FromDefinition(&a.Definition, m.catalog)
	if err != nil {
		return nil, err
	}
	meta := graph.Meta{Name: a.Name, Description: a.Description}
	s := m.newSession(a.ID, meta, g)
	m.logger.Info("session opened", slog.String("session_id", s.id),
		slog.String("automation_id", a.ID))
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "session %q not found", id)
	}
	return s, nil
}

// Close ends a session, discarding unsaved changes.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "session %q not found", id)
	}
	delete(m.sessions, id)
	m.logger.Info("session closed", slog.String("session_id", id))
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
