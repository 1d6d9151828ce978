package graph

import (
	"github.com/google/uuid"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

// Node is a single unit of the flow graph. Kind, Subtype and Channel are
// immutable after creation; changing a node's type is delete + recreate.
type Node struct {
	ID       string          `json:"id"`
	Kind     schema.NodeKind `json:"kind"`
	Subtype  string          `json:"subtype"`
	Channel  schema.Channel  `json:"channel,omitempty"`
	Position schema.Position `json:"position"`
	Config   map[string]any  `json:"config,omitempty"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type pair struct {
	source, target string
}

// Graph is the mutable node/edge aggregate owned by one editor session.
// Not safe for concurrent mutation; the owning session serializes access.
// Insertion order is preserved so serialization is deterministic.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string
	byPair    map[pair]string
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:  make(map[string]*Node),
		edges:  make(map[string]*Edge),
		byPair: make(map[pair]string),
	}
}

// AddNode creates a node with a fresh id and empty config.
func (g *Graph) AddNode(kind schema.NodeKind, subtype string, channel schema.Channel, pos schema.Position) string {
	id := uuid.NewString()
	g.nodes[id] = &Node{
		ID:       id,
		Kind:     kind,
		Subtype:  subtype,
		Channel:  channel,
		Position: pos,
		Config:   make(map[string]any),
	}
	g.nodeOrder = append(g.nodeOrder, id)
	return id
}

// MoveNode updates a node's position. No-op if the id is absent.
// Never touches config or kind.
func (g *Graph) MoveNode(id string, pos schema.Position) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	n.Position = pos
}

// ConfigureNode shallow-merges partial into the node's config; later keys
// overwrite. No-op if the id is absent.
func (g *Graph) ConfigureNode(id string, partial map[string]any) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for k, v := range partial {
		n.Config[k] = v
	}
}

// RemoveNode deletes the node and, atomically, every edge touching it.
// The cascading delete is the graph's core integrity guarantee: no edge
// ever outlives an endpoint. No-op if the id is absent.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}

	for _, edgeID := range g.edgeOrder {
		e := g.edges[edgeID]
		if e != nil && (e.Source == id || e.Target == id) {
			delete(g.byPair, pair{e.Source, e.Target})
			delete(g.edges, edgeID)
		}
	}
	g.edgeOrder = compactOrder(g.edgeOrder, func(edgeID string) bool {
		_, alive := g.edges[edgeID]
		return alive
	})

	delete(g.nodes, id)
	g.nodeOrder = compactOrder(g.nodeOrder, func(nodeID string) bool {
		return nodeID != id
	})
}

// Connect creates an edge from source to target and returns its id.
// Returns "" and changes nothing on a self-loop, an unknown endpoint, or a
// duplicate (source, target) pair. These are guarded pre-conditions, not
// errors: the model stays consistent and the gesture is simply dropped.
func (g *Graph) Connect(sourceID, targetID string) string {
	if sourceID == targetID {
		return ""
	}
	if _, ok := g.nodes[sourceID]; !ok {
		return ""
	}
	if _, ok := g.nodes[targetID]; !ok {
		return ""
	}
	if _, exists := g.byPair[pair{sourceID, targetID}]; exists {
		return ""
	}

	id := uuid.NewString()
	g.edges[id] = &Edge{ID: id, Source: sourceID, Target: targetID}
	g.edgeOrder = append(g.edgeOrder, id)
	g.byPair[pair{sourceID, targetID}] = id
	return id
}

// Disconnect deletes the edge if present; no-op otherwise.
func (g *Graph) Disconnect(edgeID string) {
	e, ok := g.edges[edgeID]
	if !ok {
		return
	}
	delete(g.byPair, pair{e.Source, e.Target})
	delete(g.edges, edgeID)
	g.edgeOrder = compactOrder(g.edgeOrder, func(id string) bool {
		return id != edgeID
	})
}

// Node returns a copy of the node, if present.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return copyNode(n), true
}

// Edge returns a copy of the edge, if present.
func (g *Graph) Edge(id string) (Edge, bool) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, copyNode(g.nodes[id]))
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, *g.edges[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Snapshot returns a deep copy safe to validate or serialize while the
// original keeps mutating.
func (g *Graph) Snapshot() *Graph {
	s := New()
	for _, id := range g.nodeOrder {
		n := copyNode(g.nodes[id])
		s.nodes[id] = &n
		s.nodeOrder = append(s.nodeOrder, id)
	}
	for _, id := range g.edgeOrder {
		e := *g.edges[id]
		s.edges[id] = &e
		s.edgeOrder = append(s.edgeOrder, id)
		s.byPair[pair{e.Source, e.Target}] = id
	}
	return s
}

func copyNode(n *Node) Node {
	c := *n
	c.Config = copyConfig(n.Config)
	return c
}

func copyConfig(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyConfig(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

func compactOrder(order []string, keep func(string) bool) []string {
	out := order[:0]
	for _, id := range order {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
