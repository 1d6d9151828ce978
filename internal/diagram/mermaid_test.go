package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

func sampleFlow() *schema.AutomationDefinition {
	return &schema.AutomationDefinition{
		Name: "welcome flow",
		Nodes: []schema.NodeDefinition{
			{ID: "t-1", Kind: schema.KindTrigger, Subtype: schema.SubtypeNewContact},
			{ID: "a-1", Kind: schema.KindAction, Subtype: schema.SubtypeSendEmail, Channel: schema.ChannelEmail},
			{ID: "l-1", Kind: schema.KindLogic, Subtype: schema.SubtypeCondition},
		},
		Edges: []schema.EdgeDefinition{
			{ID: "e-1", Source: "t-1", Target: "a-1"},
			{ID: "e-2", Source: "a-1", Target: "l-1"},
		},
	}
}

func TestRenderMermaid(t *testing.T) {
	out := RenderMermaid(sampleFlow())

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "%% welcome flow")
	// trigger is a circle, condition a diamond
	assert.Contains(t, out, `t_1(("new_contact"))`)
	assert.Contains(t, out, `l_1{"condition"}`)
	// channel appears in action labels
	assert.Contains(t, out, `a_1["send_email (email)"]`)
	assert.Contains(t, out, "t_1 --> a_1")
	assert.Contains(t, out, "class t_1 trigger")
	assert.Contains(t, out, "class a_1 action")
}

func TestRenderMermaidEmptyFlow(t *testing.T) {
	out := RenderMermaid(&schema.AutomationDefinition{Name: "empty"})
	assert.Contains(t, out, "graph TD")
	assert.NotContains(t, out, "-->")
}
