package validation

import (
	"github.com/robfig/cron/v3"

	"github.com/marqtools/flowbuilder/internal/catalog"
	"github.com/marqtools/flowbuilder/internal/expressions"
	"github.com/marqtools/flowbuilder/internal/graph"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

// GraphValidator checks a graph snapshot for completeness and referential
// integrity before it may be persisted or activated. It runs two stages:
//
//  1. Semantic: node catalog checks, config completeness, condition source
//     and status vocabulary rules, filter expression compilation, trigger
//     schedule parsing.
//  2. Integrity: defensive re-check of the edge invariants the graph
//     enforces structurally, plus reachability/cycle analysis (warnings).
//
// All violations within a stage are collected; nothing short-circuits.
// Validate never mutates its input and is safe to call concurrently against
// immutable snapshots.
type GraphValidator struct {
	catalog    catalog.Lookup
	engines    *expressions.Engines
	cronParser cron.Parser
	structural *DefinitionValidator
}

// NewGraphValidator creates a GraphValidator.
// engines may be nil to skip filter expression compilation checks.
func NewGraphValidator(cat catalog.Lookup, engines *expressions.Engines) (*GraphValidator, error) {
	structural, err := NewDefinitionValidator()
	if err != nil {
		return nil, err
	}
	return &GraphValidator{
		catalog:    cat,
		engines:    engines,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		structural: structural,
	}, nil
}

// Validate runs the full pipeline against a graph snapshot.
func (v *GraphValidator) Validate(g *graph.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if g == nil {
		result.AddError("", schema.IssueMalformedDefinition, "graph is nil")
		return result
	}

	result.Merge(v.validateSemantic(g))
	result.Merge(validateIntegrity(g))
	return result
}

// ValidateDefinition checks an externally supplied definition: structural
// JSON Schema validation first, then the full graph pipeline on a rebuilt
// graph. Used for definitions round-tripped through storage or an import.
func (v *GraphValidator) ValidateDefinition(def *schema.AutomationDefinition) *schema.ValidationResult {
	result := v.structural.Validate(def)
	if !result.Valid() {
		return result
	}

	g, err := graph.FromDefinition(def, v.catalog)
	if err != nil {
		result.AddError("", schema.IssueMalformedDefinition, err.Error())
		return result
	}

	result.Merge(v.Validate(g))
	return result
}
