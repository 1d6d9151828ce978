package validation

import (
	"fmt"

	"github.com/marqtools/flowbuilder/internal/catalog"
	"github.com/marqtools/flowbuilder/internal/graph"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

// validateSemantic applies the domain rules over all nodes.
// Rules are evaluated independently so every violation is reported.
func (v *GraphValidator) validateSemantic(g *graph.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	nodes := g.Nodes()

	// The registry, not the node's declared Kind, decides what counts as a
	// trigger; a declared Kind can lie on imported definitions.
	hasTrigger := false
	for _, n := range nodes {
		if v.effectiveKind(n) == schema.KindTrigger {
			hasTrigger = true
			break
		}
	}
	if !hasTrigger {
		result.AddError("", schema.IssueMissingTrigger,
			"automation has no trigger node")
	}

	for _, n := range nodes {
		v.validateNode(g, n, result)
	}

	return result
}

func (v *GraphValidator) validateNode(g *graph.Graph, n graph.Node, result *schema.ValidationResult) {
	nt, known := v.catalog.Get(n.Subtype)
	if !known {
		result.AddError(n.ID, schema.IssueUnknownNodeKind,
			fmt.Sprintf("node kind %q is not in the catalog", n.Subtype))
		return
	}

	// Declared kind and channel must agree with the catalog's entry. A node
	// that lies about either is not examined further under its false identity.
	if n.Kind != nt.Kind {
		result.AddError(n.ID, schema.IssueUnknownNodeKind,
			fmt.Sprintf("node declares kind %q but %q is a %s", n.Kind, n.Subtype, nt.Kind))
		return
	}
	if n.Channel != nt.Channel {
		result.AddError(n.ID, schema.IssueUnknownNodeKind,
			fmt.Sprintf("node declares channel %q but %q is registered with channel %q", n.Channel, n.Subtype, nt.Channel))
		return
	}

	// Kind-mandatory config fields.
	for _, field := range nt.RequiredConfigFields {
		if isConfigFieldEmpty(n.Config, field) {
			result.AddError(n.ID, schema.IssueIncompleteNodeConfig,
				fmt.Sprintf("%s node is missing required config field %q", n.Subtype, field))
		}
	}

	switch {
	case n.Kind == schema.KindLogic && n.Subtype == schema.SubtypeCondition:
		v.validateCondition(g, n, result)
	case n.Kind == schema.KindLogic && n.Subtype == schema.SubtypeFilter:
		v.validateFilter(n, result)
	case n.Kind == schema.KindTrigger && n.Subtype == schema.SubtypeSchedule:
		v.validateSchedule(n, result)
	}
}

// validateCondition enforces the cross-cutting rule of the domain: the legal
// status vocabulary is determined by the channel of the upstream action node
// the condition examines, not by the condition node itself.
func (v *GraphValidator) validateCondition(g *graph.Graph, n graph.Node, result *schema.ValidationResult) {
	sourceID, _ := n.Config[schema.ConfigSourceNodeID].(string)
	if sourceID == "" {
		// Absence is reported by the required-fields rule; nothing to chase.
		return
	}

	source, ok := g.Node(sourceID)
	if !ok || v.effectiveKind(source) != schema.KindAction {
		result.AddError(n.ID, schema.IssueDanglingConditionSource,
			fmt.Sprintf("condition source %q is not an action node in this automation", sourceID))
		return
	}

	status, _ := n.Config[schema.ConfigStatus].(string)
	if status == "" {
		return
	}

	// The vocabulary channel comes from the registry entry for the source's
	// subtype, never from the channel the node itself declares.
	channel := source.Channel
	if nt, known := v.catalog.Get(source.Subtype); known {
		channel = nt.Channel
	}
	if channel == "" {
		result.AddError(n.ID, schema.IssueInvalidConditionStatus,
			fmt.Sprintf("action %q has no delivery statuses to branch on", source.Subtype))
		return
	}

	if !catalog.StatusAllowed(channel, status) {
		result.AddError(n.ID, schema.IssueInvalidConditionStatus,
			fmt.Sprintf("status %q is not in the %s vocabulary", status, channel))
	}
}

// effectiveKind resolves a node's kind from the registry when the subtype is
// known, falling back to the declared kind only for unregistered subtypes.
func (v *GraphValidator) effectiveKind(n graph.Node) schema.NodeKind {
	if nt, known := v.catalog.Get(n.Subtype); known {
		return nt.Kind
	}
	return n.Kind
}

func (v *GraphValidator) validateFilter(n graph.Node, result *schema.ValidationResult) {
	if v.engines == nil {
		return
	}

	expression, _ := n.Config[schema.ConfigExpression].(string)
	if expression == "" {
		return
	}

	language, _ := n.Config[schema.ConfigLanguage].(string)
	eng, err := v.engines.ForLanguage(language)
	if err != nil {
		result.AddError(n.ID, schema.IssueInvalidFilterExpression, err.Error())
		return
	}
	if err := eng.Check(expression); err != nil {
		result.AddError(n.ID, schema.IssueInvalidFilterExpression,
			fmt.Sprintf("filter expression does not compile: %s", err.Error()))
	}
}

func (v *GraphValidator) validateSchedule(n graph.Node, result *schema.ValidationResult) {
	spec, _ := n.Config[schema.ConfigCron].(string)
	if spec == "" {
		return
	}
	if _, err := v.cronParser.Parse(spec); err != nil {
		result.AddError(n.ID, schema.IssueInvalidTriggerSchedule,
			fmt.Sprintf("cron spec %q is invalid: %s", spec, err.Error()))
	}
}

// isConfigFieldEmpty treats an absent key, a nil value, and an empty string
// as missing. Zero numbers are legal values (e.g. waitAmount adjusted later).
func isConfigFieldEmpty(cfg map[string]any, field string) bool {
	val, ok := cfg[field]
	if !ok || val == nil {
		return true
	}
	if s, isStr := val.(string); isStr && s == "" {
		return true
	}
	return false
}
