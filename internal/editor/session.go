package editor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/marqtools/flowbuilder/internal/catalog"
	"github.com/marqtools/flowbuilder/internal/expressions"
	"github.com/marqtools/flowbuilder/internal/graph"
	"github.com/marqtools/flowbuilder/internal/logging"
	"github.com/marqtools/flowbuilder/internal/store"
	"github.com/marqtools/flowbuilder/internal/validation"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

// PendingConnection is the transient state of a live connection drag.
type PendingConnection struct {
	FromNodeID string          `json:"from_node_id"`
	Pointer    schema.Position `json:"pointer"`
}

// Session owns one automation graph during editing. The graph is created
// empty (or loaded from a stored definition) when the session starts and is
// discarded when the session ends; it only survives through an explicit
// Save. All operations are synchronous and serialized by the session mutex,
// so each mutation is immediately visible to subsequent reads.
type Session struct {
	mu sync.Mutex

	id           string
	automationID string // set after the first successful save, or on load
	meta         graph.Meta
	g            *graph.Graph

	state           State
	selectedNodeID  string
	configuringNode string
	pending         *PendingConnection

	catalog   catalog.Lookup
	validator *validation.GraphValidator
	engines   *expressions.Engines
	logger    *slog.Logger
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AutomationID returns the stored automation this session edits, or "" for
// a new, never-saved automation.
func (s *Session) AutomationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.automationID
}

// State returns the current interaction state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectedNode returns the currently selected node id, or "".
func (s *Session) SelectedNode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedNodeID
}

// Pending returns a copy of the live connection drag, if any.
func (s *Session) Pending() *PendingConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// Meta returns the automation name and description being edited.
func (s *Session) Meta() graph.Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// SetMeta updates the automation name and description.
func (s *Session) SetMeta(meta graph.Meta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = meta
}

// Graph returns a read-only snapshot for rendering and validation.
func (s *Session) Graph() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Snapshot()
}

// --- structural mutations ---

// AddNode places a node from the palette. The subtype must be in the
// catalog; kind and channel come from the catalog entry, never the caller.
func (s *Session) AddNode(subtype string, pos schema.Position) (string, error) {
	nt, ok := s.catalog.Get(subtype)
	if !ok {
		return "", schema.NewErrorf(schema.ErrCodeNotFound, "node type %q is not in the catalog", subtype)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.g.AddNode(nt.Kind, nt.Subtype, nt.Channel, pos)
	s.logger.Debug("node added", slog.String("session_id", s.id),
		slog.String("node_id", id), slog.String("subtype", subtype))
	return id, nil
}

// MoveNode updates a node position. Unknown ids are silently ignored.
func (s *Session) MoveNode(id string, pos schema.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.MoveNode(id, pos)
}

// ConfigureNode merges partial config into a node. Unknown ids are silently
// ignored. Exposed for non-dialog callers (e.g. an import script); the
// interactive path goes through OpenConfig/SaveConfig.
func (s *Session) ConfigureNode(id string, partial map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.ConfigureNode(id, partial)
}

// RemoveNode deletes a node and every edge touching it. Selection and any
// open configuration surface for the node are dropped with it.
func (s *Session) RemoveNode(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.g.RemoveNode(id)
	if s.selectedNodeID == id {
		s.selectedNodeID = ""
	}
	if s.state == StateConfiguring && s.configuringNode == id {
		s.configuringNode = ""
		s.state = StateIdle
	}
}

// Connect creates an edge directly (non-gesture path, e.g. API clients).
// Returns "" when the connection is rejected.
func (s *Session) Connect(sourceID, targetID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Connect(sourceID, targetID)
}

// Disconnect removes an edge. Unknown ids are silently ignored.
func (s *Session) Disconnect(edgeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.Disconnect(edgeID)
}

// --- selection ---

// Select marks a node as selected for rendering. Empty id clears selection.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.g.Node(id); !ok {
			return schema.NewErrorf(schema.ErrCodeNotFound, "node %q not in graph", id)
		}
	}
	s.selectedNodeID = id
	return nil
}

// --- connection gesture ---

// BeginConnection starts a connection drag from a node's output handle.
func (s *Session) BeginConnection(fromNodeID string, pointer schema.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.g.Node(fromNodeID); !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "node %q not in graph", fromNodeID)
	}
	if err := s.transition(StateConnecting); err != nil {
		return err
	}
	s.pending = &PendingConnection{FromNodeID: fromNodeID, Pointer: pointer}
	return nil
}

// MovePointer updates the drag pointer while a connection is live.
func (s *Session) MovePointer(pointer schema.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"no connection drag in progress")
	}
	s.pending.Pointer = pointer
	return nil
}

// CompleteConnection ends the drag over a node's input handle. The edge id
// is returned, or "" when the graph rejects the connection (self-loop,
// duplicate, vanished endpoint); the gesture is dropped either way.
func (s *Session) CompleteConnection(targetID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return "", schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"no connection drag in progress")
	}

	from := s.pending.FromNodeID
	s.pending = nil
	if err := s.transition(StateIdle); err != nil {
		return "", err
	}

	edgeID := s.g.Connect(from, targetID)
	if edgeID != "" {
		s.logger.Debug("edge connected", slog.String("session_id", s.id),
			slog.String("source", from), slog.String("target", targetID))
	}
	return edgeID, nil
}

// CancelConnection ends the drag over empty canvas; nothing is created.
func (s *Session) CancelConnection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"no connection drag in progress")
	}
	s.pending = nil
	return s.transition(StateIdle)
}

// --- configuration dialog ---

// OpenConfig opens the configuration surface for a node.
func (s *Session) OpenConfig(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.g.Node(nodeID); !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "node %q not in graph", nodeID)
	}
	if err := s.transition(StateConfiguring); err != nil {
		return err
	}
	s.selectedNodeID = nodeID
	s.configuringNode = nodeID
	return nil
}

// SaveConfig commits the dialog's values via ConfigureNode and closes the
// surface. The commit happens only on save; see CancelConfig.
func (s *Session) SaveConfig(partial map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConfiguring {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"no configuration surface open")
	}
	s.g.ConfigureNode(s.configuringNode, partial)
	s.configuringNode = ""
	return s.transition(StateIdle)
}

// CancelConfig closes the surface without committing anything.
func (s *Session) CancelConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConfiguring {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"no configuration surface open")
	}
	s.configuringNode = ""
	return s.transition(StateIdle)
}

// --- validation, preview, save ---

// Validate runs the validator against the current graph snapshot.
func (s *Session) Validate() *schema.ValidationResult {
	return s.validator.Validate(s.Graph())
}

// Preview evaluates a filter node's expression against a sample contact so
// the operator can test a segment before saving.
func (s *Session) Preview(ctx context.Context, nodeID string, contact map[string]any) (any, error) {
	s.mu.Lock()
	n, ok := s.g.Node(nodeID)
	s.mu.Unlock()

	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "node %q not in graph", nodeID)
	}
	if n.Subtype != schema.SubtypeFilter {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"node %q is not a filter node", nodeID)
	}

	expression, _ := n.Config[schema.ConfigExpression].(string)
	language, _ := n.Config[schema.ConfigLanguage].(string)
	eng, err := s.engines.ForLanguage(language)
	if err != nil {
		return nil, err
	}
	return eng.Evaluate(ctx, expression, contact)
}

// Save validates the graph, refuses to serialize anything invalid, and
// hands the definition to the persistence collaborator. A persistence
// failure leaves the in-memory graph untouched so the operator can retry
// without re-entering data.
func (s *Session) Save(ctx context.Context, st store.Store) (*store.Automation, error) {
	snap := s.Graph()

	result := s.validator.Validate(snap)
	if !result.Valid() {
		return nil, result.ToError()
	}

	s.mu.Lock()
	meta := s.meta
	automationID := s.automationID
	s.mu.Unlock()

	def := snap.Serialize(meta)
	ctx = logging.WithSessionID(ctx, s.id)

	if automationID == "" {
		a := &store.Automation{
			ID:          uuid.NewString(),
			Name:        def.Name,
			Description: def.Description,
			Definition:  *def,
		}
		if err := st.CreateAutomation(ctx, a); err != nil {
			return nil, schema.NewError(schema.ErrCodePersistence, "create automation").WithCause(err)
		}
		s.mu.Lock()
		s.automationID = a.ID
		s.mu.Unlock()

		s.logger.InfoContext(logging.WithAutomationID(ctx, a.ID), "automation created",
			slog.Int("nodes", snap.NodeCount()), slog.Int("edges", snap.EdgeCount()))
		return a, nil
	}

	a := &store.Automation{
		ID:          automationID,
		Name:        def.Name,
		Description: def.Description,
		Definition:  *def,
	}
	if err := st.UpdateAutomation(ctx, a); err != nil {
		return nil, schema.NewError(schema.ErrCodePersistence, "update automation").WithCause(err)
	}

	s.logger.InfoContext(logging.WithAutomationID(ctx, a.ID), "automation saved",
		slog.Int("revision", a.Revision),
		slog.Int("nodes", snap.NodeCount()), slog.Int("edges", snap.EdgeCount()))
	return a, nil
}
