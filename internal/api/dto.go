package api

import (
	"github.com/marqtools/flowbuilder/internal/editor"
	"github.com/marqtools/flowbuilder/internal/graph"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

type createSessionRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type importSessionRequest struct {
	Definition *schema.AutomationDefinition `json:"definition" validate:"required"`
}

type metaRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type addNodeRequest struct {
	Subtype  string          `json:"subtype" validate:"required"`
	Position schema.Position `json:"position"`
}

type moveNodeRequest struct {
	Position schema.Position `json:"position"`
}

type configureNodeRequest struct {
	Config map[string]any `json:"config" validate:"required"`
}

type connectRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

type selectRequest struct {
	NodeID string `json:"node_id"`
}

type beginConnectionRequest struct {
	FromNodeID string          `json:"from_node_id" validate:"required"`
	Pointer    schema.Position `json:"pointer"`
}

type movePointerRequest struct {
	Pointer schema.Position `json:"pointer"`
}

type completeConnectionRequest struct {
	TargetNodeID string `json:"target_node_id" validate:"required"`
}

type openConfigRequest struct {
	NodeID string `json:"node_id" validate:"required"`
}

type previewRequest struct {
	NodeID  string         `json:"node_id" validate:"required"`
	Contact map[string]any `json:"contact"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active archived"`
}

// sessionView is the rendered session state returned to clients.
type sessionView struct {
	ID           string                     `json:"id"`
	AutomationID string                     `json:"automation_id,omitempty"`
	Name         string                     `json:"name"`
	Description  string                     `json:"description,omitempty"`
	State        editor.State               `json:"state"`
	SelectedNode string                     `json:"selected_node,omitempty"`
	Pending      *editor.PendingConnection  `json:"pending_connection,omitempty"`
	Nodes        []graph.Node               `json:"nodes"`
	Edges        []graph.Edge               `json:"edges"`
}

func renderSession(s *editor.Session) sessionView {
	g := s.Graph()
	meta := s.Meta()
	return sessionView{
		ID:           s.ID(),
		AutomationID: s.AutomationID(),
		Name:         meta.Name,
		Description:  meta.Description,
		State:        s.State(),
		SelectedNode: s.SelectedNode(),
		Pending:      s.Pending(),
		Nodes:        g.Nodes(),
		Edges:        g.Edges(),
	}
}
