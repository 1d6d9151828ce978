package graph

import (
	"github.com/marqtools/flowbuilder/internal/catalog"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

// Meta carries the automation-level fields that are not part of the graph.
type Meta struct {
	Name        string
	Description string
}

// KindLookup is the slice of the node catalog deserialization needs.
// Satisfied by catalog.Registry.
type KindLookup interface {
	Get(subtype string) (catalog.NodeType, bool)
}

// Serialize projects the graph into its persisted form. Output order follows
// node/edge insertion order, so the same graph always produces structurally
// identical output.
func (g *Graph) Serialize(meta Meta) *schema.AutomationDefinition {
	def := &schema.AutomationDefinition{
		Name:        meta.Name,
		Description: meta.Description,
		Nodes:       make([]schema.NodeDefinition, 0, len(g.nodeOrder)),
		Edges:       make([]schema.EdgeDefinition, 0, len(g.edgeOrder)),
	}

	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		def.Nodes = append(def.Nodes, schema.NodeDefinition{
			ID:       n.ID,
			Kind:     n.Kind,
			Subtype:  n.Subtype,
			Channel:  n.Channel,
			Position: n.Position,
			Config:   copyConfig(n.Config),
		})
	}
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		def.Edges = append(def.Edges, schema.EdgeDefinition{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
		})
	}
	return def
}

// FromDefinition rebuilds a Graph from a stored definition.
// Loading is all-or-nothing: a dangling edge reference, a duplicate id, a
// structurally illegal edge, a subtype missing from the catalog, or a
// declared kind/channel disagreeing with the catalog's entry for that
// subtype fails with MALFORMED_DEFINITION rather than silently dropping
// operator intent.
func FromDefinition(def *schema.AutomationDefinition, kinds KindLookup) (*Graph, error) {
	if def == nil {
		return nil, schema.NewError(schema.ErrCodeMalformedDefinition, "definition is nil")
	}

	g := New()

	for _, nd := range def.Nodes {
		if nd.ID == "" {
			return nil, schema.NewError(schema.ErrCodeMalformedDefinition, "node with empty id")
		}
		if _, exists := g.nodes[nd.ID]; exists {
			return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
				"duplicate node id %q", nd.ID)
		}
		if kinds != nil {
			nt, ok := kinds.Get(nd.Subtype)
			if !ok {
				return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
					"node %s has unknown kind %q", nd.ID, nd.Subtype).WithNode(nd.ID)
			}
			// The catalog owns a subtype's kind and channel. A definition
			// that disagrees is forged or corrupt, not merely incomplete.
			if nd.Kind != nt.Kind {
				return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
					"node %s declares kind %q but %q is a %s", nd.ID, nd.Kind, nd.Subtype, nt.Kind).WithNode(nd.ID)
			}
			if nd.Channel != nt.Channel {
				if nt.Channel == "" {
					return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
						"node %s declares channel %q but %q has no channel", nd.ID, nd.Channel, nd.Subtype).WithNode(nd.ID)
				}
				return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
					"node %s declares channel %q but %q sends through %q", nd.ID, nd.Channel, nd.Subtype, nt.Channel).WithNode(nd.ID)
			}
		}
		cfg := copyConfig(nd.Config)
		if cfg == nil {
			cfg = make(map[string]any)
		}
		g.nodes[nd.ID] = &Node{
			ID:       nd.ID,
			Kind:     nd.Kind,
			Subtype:  nd.Subtype,
			Channel:  nd.Channel,
			Position: nd.Position,
			Config:   cfg,
		}
		g.nodeOrder = append(g.nodeOrder, nd.ID)
	}

	for _, ed := range def.Edges {
		if ed.ID == "" {
			return nil, schema.NewError(schema.ErrCodeMalformedDefinition, "edge with empty id")
		}
		if _, exists := g.edges[ed.ID]; exists {
			return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
				"duplicate edge id %q", ed.ID)
		}
		if _, ok := g.nodes[ed.Source]; !ok {
			return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
				"edge %s references missing source node %q", ed.ID, ed.Source)
		}
		if _, ok := g.nodes[ed.Target]; !ok {
			return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
				"edge %s references missing target node %q", ed.ID, ed.Target)
		}
		if ed.Source == ed.Target {
			return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
				"edge %s is a self-loop on node %q", ed.ID, ed.Source)
		}
		p := pair{ed.Source, ed.Target}
		if _, exists := g.byPair[p]; exists {
			return nil, schema.NewErrorf(schema.ErrCodeMalformedDefinition,
				"duplicate edge %s -> %s", ed.Source, ed.Target)
		}
		g.edges[ed.ID] = &Edge{ID: ed.ID, Source: ed.Source, Target: ed.Target}
		g.edgeOrder = append(g.edgeOrder, ed.ID)
		g.byPair[p] = ed.ID
	}

	return g, nil
}
