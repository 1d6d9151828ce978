package expressions

import (
	"context"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

// Engine compiles and evaluates filter-node expressions.
// Three implementations: Expr (default), CEL, and GoJQ. The validator uses
// Check at authoring time; the preview endpoint uses Evaluate with a sample
// contact.
type Engine interface {
	Name() string
	// Check compiles the expression without evaluating it.
	Check(expression string) error
	// Evaluate runs the expression against a contact environment.
	Evaluate(ctx context.Context, expression string, contact map[string]any) (any, error)
}

// Filter expression languages selectable in a filter node's config.
const (
	LanguageExpr = "expr"
	LanguageCEL  = "cel"
	LanguageJQ   = "jq"
)

// DefaultLanguage is used when a filter node omits the language field.
const DefaultLanguage = LanguageExpr

// Engines bundles one engine per supported language.
type Engines struct {
	byName map[string]Engine
}

// NewEngines constructs the full engine set.
func NewEngines() (*Engines, error) {
	celEng, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	return &Engines{
		byName: map[string]Engine{
			LanguageExpr: NewExprEngine(),
			LanguageCEL:  celEng,
			LanguageJQ:   NewGoJQEngine(),
		},
	}, nil
}

// ForLanguage returns the engine for the given language name.
// An empty name selects the default language.
func (e *Engines) ForLanguage(name string) (Engine, error) {
	if name == "" {
		name = DefaultLanguage
	}
	eng, ok := e.byName[name]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"unknown filter language %q", name)
	}
	return eng, nil
}
