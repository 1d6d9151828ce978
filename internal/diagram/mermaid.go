// Package diagram renders automation flows as Mermaid flowcharts for
// documentation and review surfaces that cannot embed the canvas.
package diagram

import (
	"fmt"
	"strings"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

// RenderMermaid renders an automation definition as a Mermaid flowchart.
// Layout is top-down; node shapes follow the node kind so triggers, actions
// and logic read differently at a glance.
func RenderMermaid(def *schema.AutomationDefinition) string {
	var b strings.Builder

	b.WriteString("graph TD\n")
	if def.Name != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", def.Name))
	}

	for _, n := range def.Nodes {
		b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(n)))
	}

	for _, e := range def.Edges {
		b.WriteString(fmt.Sprintf("    %s --> %s\n",
			mermaidSafeID(e.Source), mermaidSafeID(e.Target)))
	}

	b.WriteString("\n")
	b.WriteString("    classDef trigger fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	b.WriteString("    classDef action fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	b.WriteString("    classDef logic fill:#b7791a,stroke:#8a5c14,color:#fff\n")

	for _, n := range def.Nodes {
		b.WriteString(fmt.Sprintf("    class %s %s\n", mermaidSafeID(n.ID), string(n.Kind)))
	}

	return b.String()
}

// mermaidNodeDef returns a Mermaid node definition with the appropriate shape.
func mermaidNodeDef(n schema.NodeDefinition) string {
	id := mermaidSafeID(n.ID)
	label := nodeLabel(n)

	switch {
	case n.Kind == schema.KindTrigger:
		return fmt.Sprintf("%s((%q))", id, label)
	case n.Subtype == schema.SubtypeCondition:
		return fmt.Sprintf("%s{%q}", id, label)
	case n.Subtype == schema.SubtypeFilter:
		return fmt.Sprintf("%s{{%q}}", id, label)
	case n.Subtype == schema.SubtypeWait:
		return fmt.Sprintf("%s([%q])", id, label)
	default:
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

// nodeLabel renders the subtype plus channel, e.g. "send_email (email)".
func nodeLabel(n schema.NodeDefinition) string {
	if n.Channel != "" {
		return fmt.Sprintf("%s (%s)", n.Subtype, n.Channel)
	}
	return n.Subtype
}

// mermaidSafeID converts a node ID to a Mermaid-safe identifier.
// Replaces dots and dashes with underscores.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(id)
}
