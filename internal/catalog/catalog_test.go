package catalog

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

func TestRegistry_ImplementsLookup(t *testing.T) {
	var _ Lookup = (*Registry)(nil)
}

func TestRegistry_Register_Success(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(NodeType{Kind: schema.KindTrigger, Subtype: "webhook"})
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Count())
	assert.True(t, reg.Has("webhook"))
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NodeType{Kind: schema.KindLogic, Subtype: "wait"}))

	err := reg.Register(NodeType{Kind: schema.KindLogic, Subtype: "wait"})
	require.Error(t, err)

	var fe *schema.FlowError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, schema.ErrCodeConflict, fe.Code)
}

func TestRegistry_Register_EmptySubtype(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(NodeType{Kind: schema.KindAction})
	require.Error(t, err)
}

func TestRegistry_Register_UnknownKind(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(NodeType{Kind: "decoration", Subtype: "sticker"})
	require.Error(t, err)
}

func TestRegistry_Register_MessagingActionNeedsChannel(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(NodeType{Kind: schema.KindAction, Subtype: schema.SubtypeSendSMS})
	require.Error(t, err)

	err = reg.Register(NodeType{
		Kind: schema.KindAction, Subtype: schema.SubtypeSendSMS, Channel: schema.ChannelSMS,
	})
	assert.NoError(t, err)
}

func TestRegistry_Get_Missing(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Get("nope")
	assert.False(t, ok)
}

func TestRegistry_List_Ordering(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NodeType{Kind: schema.KindLogic, Subtype: "wait"}))
	require.NoError(t, reg.Register(NodeType{Kind: schema.KindTrigger, Subtype: "webhook"}))
	require.NoError(t, reg.Register(NodeType{Kind: schema.KindAction, Subtype: "add_tag"}))

	list := reg.List()
	require.Len(t, list, 3)
	assert.Equal(t, schema.KindTrigger, list[0].Kind)
	assert.Equal(t, schema.KindAction, list[1].Kind)
	assert.Equal(t, schema.KindLogic, list[2].Kind)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := Builtin()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.Has(schema.SubtypeSendEmail)
				reg.List()
			}
		}()
	}
	wg.Wait()
}

func TestBuiltin_Catalog(t *testing.T) {
	reg := Builtin()

	email, ok := reg.Get(schema.SubtypeSendEmail)
	require.True(t, ok)
	assert.Equal(t, schema.KindAction, email.Kind)
	assert.Equal(t, schema.ChannelEmail, email.Channel)
	assert.Contains(t, email.RequiredConfigFields, "subject")

	wait, ok := reg.Get(schema.SubtypeWait)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"waitAmount", "waitUnit"}, wait.RequiredConfigFields)

	cond, ok := reg.Get(schema.SubtypeCondition)
	require.True(t, ok)
	assert.Contains(t, cond.RequiredConfigFields, schema.ConfigSourceNodeID)
	assert.Contains(t, cond.RequiredConfigFields, schema.ConfigStatus)

	assert.True(t, reg.Has(schema.SubtypeSchedule))
	assert.True(t, reg.Has(schema.SubtypeFilter))
}

func TestStatusVocabulary(t *testing.T) {
	email := StatusVocabulary(schema.ChannelEmail)
	assert.Contains(t, email, "hard_bounce")
	assert.Contains(t, email, "aberto")
	assert.Len(t, email, 7)

	sms := StatusVocabulary(schema.ChannelSMS)
	assert.Contains(t, sms, "entregue")
	assert.NotContains(t, sms, "aberto", "aberto is email-only")

	assert.Nil(t, StatusVocabulary("pigeon"))
}

func TestStatusVocabulary_ReturnsCopy(t *testing.T) {
	v := StatusVocabulary(schema.ChannelLetter)
	v[0] = "mutated"
	assert.Equal(t, "postado", StatusVocabulary(schema.ChannelLetter)[0])
}

func TestStatusAllowed(t *testing.T) {
	assert.True(t, StatusAllowed(schema.ChannelEmail, "aberto"))
	assert.False(t, StatusAllowed(schema.ChannelSMS, "aberto"))
	assert.False(t, StatusAllowed("pigeon", "entregue"))
}
