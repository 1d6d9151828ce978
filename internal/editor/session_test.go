package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marqtools/flowbuilder/internal/catalog"
	"github.com/marqtools/flowbuilder/internal/expressions"
	"github.com/marqtools/flowbuilder/internal/graph"
	"github.com/marqtools/flowbuilder/internal/store"
	"github.com/marqtools/flowbuilder/internal/validation"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cat := catalog.Builtin()
	engines, err := expressions.NewEngines()
	require.NoError(t, err)
	validator, err := validation.NewGraphValidator(cat, engines)
	require.NoError(t, err)
	return NewManager(cat, validator, engines, nil)
}

// memStore is an in-memory Store for session save tests.
type memStore struct {
	automations map[string]*store.Automation
	failNext    error
}

func newMemStore() *memStore {
	return &memStore{automations: make(map[string]*store.Automation)}
}

func (m *memStore) CreateAutomation(_ context.Context, a *store.Automation) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	cp := *a
	m.automations[a.ID] = &cp
	return nil
}

func (m *memStore) GetAutomation(_ context.Context, id string) (*store.Automation, error) {
	a, ok := m.automations[id]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "automation %q not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) UpdateAutomation(_ context.Context, a *store.Automation) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	prev, ok := m.automations[a.ID]
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "automation %q not found", a.ID)
	}
	a.Revision = prev.Revision + 1
	cp := *a
	m.automations[a.ID] = &cp
	return nil
}

func (m *memStore) SetStatus(_ context.Context, id, status string) error {
	a, ok := m.automations[id]
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "automation %q not found", id)
	}
	a.Status = status
	return nil
}

func (m *memStore) ListAutomations(_ context.Context, _ store.ListFilter) ([]*store.Automation, error) {
	out := make([]*store.Automation, 0, len(m.automations))
	for _, a := range m.automations {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) DeleteAutomation(_ context.Context, id string) error {
	delete(m.automations, id)
	return nil
}

func (m *memStore) ListRevisions(_ context.Context, _ string) ([]*store.Revision, error) {
	return nil, nil
}

func (m *memStore) Migrate(_ context.Context) error { return nil }
func (m *memStore) Close() error                    { return nil }

var _ store.Store = (*memStore)(nil)

func buildValidSession(t *testing.T, m *Manager) *Session {
	t.Helper()
	s := m.Create(graph.Meta{Name: "welcome"})

	trig, err := s.AddNode(schema.SubtypeNewContact, schema.Position{X: 0, Y: 0})
	require.NoError(t, err)
	email, err := s.AddNode(schema.SubtypeSendEmail, schema.Position{X: 200, Y: 0})
	require.NoError(t, err)
	s.ConfigureNode(email, map[string]any{"subject": "Oi"})
	require.NotEmpty(t, s.Connect(trig, email))
	return s
}

func TestSessionAddNodeResolvesCatalog(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{Name: "a"})

	id, err := s.AddNode(schema.SubtypeSendSMS, schema.Position{X: 1, Y: 2})
	require.NoError(t, err)

	n, ok := s.Graph().Node(id)
	require.True(t, ok)
	assert.Equal(t, schema.KindAction, n.Kind)
	assert.Equal(t, schema.ChannelSMS, n.Channel)
	assert.Equal(t, schema.Position{X: 1, Y: 2}, n.Position)
}

func TestSessionAddNodeUnknownSubtype(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})

	_, err := s.AddNode("teleport_contact", schema.Position{})
	require.Error(t, err)
	var fe *schema.FlowError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, schema.ErrCodeNotFound, fe.Code)
}

func TestConnectionGestureCreatesEdge(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	a, _ := s.AddNode(schema.SubtypeWebhook, schema.Position{})
	b, _ := s.AddNode(schema.SubtypeAddTag, schema.Position{})

	require.NoError(t, s.BeginConnection(a, schema.Position{X: 10, Y: 10}))
	assert.Equal(t, StateConnecting, s.State())
	require.NoError(t, s.MovePointer(schema.Position{X: 50, Y: 50}))

	edgeID, err := s.CompleteConnection(b)
	require.NoError(t, err)
	assert.NotEmpty(t, edgeID)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 1, s.Graph().EdgeCount())
}

func TestConnectionGestureOnSameNodeDiscards(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	a, _ := s.AddNode(schema.SubtypeWebhook, schema.Position{})

	require.NoError(t, s.BeginConnection(a, schema.Position{}))
	edgeID, err := s.CompleteConnection(a)
	require.NoError(t, err)

	assert.Empty(t, edgeID)
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, s.Graph().EdgeCount())
}

func TestConnectionGestureCancelOverCanvas(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	a, _ := s.AddNode(schema.SubtypeWebhook, schema.Position{})

	require.NoError(t, s.BeginConnection(a, schema.Position{}))
	require.NoError(t, s.CancelConnection())

	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Pending())
	assert.Zero(t, s.Graph().EdgeCount())
}

func TestConnectionGestureRequiresIdle(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	a, _ := s.AddNode(schema.SubtypeWebhook, schema.Position{})
	b, _ := s.AddNode(schema.SubtypeAddTag, schema.Position{})

	require.NoError(t, s.BeginConnection(a, schema.Position{}))
	err := s.BeginConnection(b, schema.Position{})
	require.Error(t, err)
	var fe *schema.FlowError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, schema.ErrCodeInvalidTransition, fe.Code)

	// the original drag is still live
	assert.Equal(t, StateConnecting, s.State())
	assert.Equal(t, a, s.Pending().FromNodeID)
}

func TestMovePointerOutsideDrag(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})

	err := s.MovePointer(schema.Position{X: 1})
	require.Error(t, err)
}

func TestConfigDialogSaveCommits(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	id, _ := s.AddNode(schema.SubtypeSendEmail, schema.Position{})

	require.NoError(t, s.OpenConfig(id))
	assert.Equal(t, StateConfiguring, s.State())
	assert.Equal(t, id, s.SelectedNode())

	require.NoError(t, s.SaveConfig(map[string]any{"subject": "Oi"}))
	assert.Equal(t, StateIdle, s.State())

	n, _ := s.Graph().Node(id)
	assert.Equal(t, "Oi", n.Config["subject"])
}

func TestConfigDialogCancelDiscards(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	id, _ := s.AddNode(schema.SubtypeSendEmail, schema.Position{})
	s.ConfigureNode(id, map[string]any{"subject": "before"})

	require.NoError(t, s.OpenConfig(id))
	require.NoError(t, s.CancelConfig())

	n, _ := s.Graph().Node(id)
	assert.Equal(t, "before", n.Config["subject"])
	assert.Equal(t, StateIdle, s.State())
}

func TestConfigDialogBlocksConnectionGesture(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	id, _ := s.AddNode(schema.SubtypeSendEmail, schema.Position{})

	require.NoError(t, s.OpenConfig(id))
	err := s.BeginConnection(id, schema.Position{})
	require.Error(t, err)
}

func TestRemoveNodeClearsOpenDialog(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	id, _ := s.AddNode(schema.SubtypeSendEmail, schema.Position{})

	require.NoError(t, s.OpenConfig(id))
	s.RemoveNode(id)

	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.SelectedNode())
}

func TestSelectUnknownNode(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})

	require.Error(t, s.Select("ghost"))
	require.NoError(t, s.Select(""))
}

func TestSaveRefusesInvalidGraph(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{Name: "broken"})
	// action only, no trigger, missing required config
	_, err := s.AddNode(schema.SubtypeSendEmail, schema.Position{})
	require.NoError(t, err)

	st := newMemStore()
	_, err = s.Save(context.Background(), st)
	require.Error(t, err)
	var fe *schema.FlowError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, schema.ErrCodeValidation, fe.Code)
	assert.Empty(t, st.automations)
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	m := newTestManager(t)
	s := buildValidSession(t, m)
	st := newMemStore()

	a, err := s.Save(context.Background(), st)
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	assert.Equal(t, a.ID, s.AutomationID())
	assert.Equal(t, "welcome", a.Name)
	assert.Len(t, st.automations, 1)

	s.SetMeta(graph.Meta{Name: "welcome v2"})
	b, err := s.Save(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "welcome v2", b.Name)
	assert.Len(t, st.automations, 1)
}

func TestSaveFailureKeepsGraph(t *testing.T) {
	m := newTestManager(t)
	s := buildValidSession(t, m)
	st := newMemStore()
	st.failNext = errors.New("connection reset")

	_, err := s.Save(context.Background(), st)
	require.Error(t, err)
	var fe *schema.FlowError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, schema.ErrCodePersistence, fe.Code)

	// nothing lost; a retry succeeds
	assert.Equal(t, 2, s.Graph().NodeCount())
	assert.Empty(t, s.AutomationID())
	_, err = s.Save(context.Background(), st)
	require.NoError(t, err)
}

func TestPreviewEvaluatesFilter(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	id, _ := s.AddNode(schema.SubtypeFilter, schema.Position{})
	s.ConfigureNode(id, map[string]any{
		schema.ConfigExpression: `age > 18`,
	})

	out, err := s.Preview(context.Background(), id, map[string]any{"age": 30})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestPreviewRejectsNonFilter(t *testing.T) {
	m := newTestManager(t)
	s := m.Create(graph.Meta{})
	id, _ := s.AddNode(schema.SubtypeSendEmail, schema.Position{})

	_, err := s.Preview(context.Background(), id, nil)
	require.Error(t, err)
}
