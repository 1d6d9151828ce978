package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marqtools/flowbuilder/internal/graph"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

func TestManagerCreateAndGet(t *testing.T) {
	m := newTestManager(t)

	s := m.Create(graph.Meta{Name: "a"})
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("missing")
	require.Error(t, err)
}

func TestManagerClose(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})

	require.NoError(t, m.Close(s.ID()))
	assert.Zero(t, m.Count())
	require.Error(t, m.Close(s.ID()))
}

func TestManagerCreateFromDefinition(t *testing.T) {
	m := newTestManager(t)

	def := &schema.AutomationDefinition{
		Name: "imported",
		Nodes: []schema.NodeDefinition{
			{ID: "t1", Kind: schema.KindTrigger, Subtype: schema.SubtypeWebhook},
			{ID: "a1", Kind: schema.KindAction, Subtype: schema.SubtypeSendEmail,
				Channel: schema.ChannelEmail, Config: map[string]any{"subject": "Oi"}},
		},
		Edges: []schema.EdgeDefinition{{ID: "e1", Source: "t1", Target: "a1"}},
	}

	s, err := m.CreateFromDefinition(def)
	require.NoError(t, err)
	assert.Equal(t, "imported", s.Meta().Name)
	assert.Equal(t, 2, s.Graph().NodeCount())
	assert.Equal(t, 1, s.Graph().EdgeCount())
	assert.Empty(t, s.AutomationID())
}

func TestManagerCreateFromMalformedDefinition(t *testing.T) {
	m := newTestManager(t)

	def := &schema.AutomationDefinition{
		Name: "broken",
		Nodes: []schema.NodeDefinition{
			{ID: "t1", Kind: schema.KindTrigger, Subtype: schema.SubtypeWebhook},
		},
		Edges: []schema.EdgeDefinition{{ID: "e1", Source: "t1", Target: "ghost"}},
	}

	_, err := m.CreateFromDefinition(def)
	require.Error(t, err)
	var fe *schema.FlowError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, schema.ErrCodeMalformedDefinition, fe.Code)
	assert.Zero(t, m.Count())
}

func TestManagerOpenLoadsStoredAutomation(t *testing.T) {
	m := newTestManager(t)
	st := newMemStore()

	seed := buildValidSession(t, m)
	saved, err := seed.Save(context.Background(), st)
	require.NoError(t, err)

	s, err := m.Open(context.Background(), st, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, s.AutomationID())
	assert.Equal(t, "welcome", s.Meta().Name)
	assert.Equal(t, 2, s.Graph().NodeCount())

	_, err = m.Open(context.Background(), st, "missing")
	require.Error(t, err)
}
