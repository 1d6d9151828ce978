package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

// automationSchemaJSON is the JSON Schema for AutomationDefinition validation.
// Embedded as a constant to avoid filesystem dependencies.
const automationSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowbuilder.marqtools.dev/schemas/automation.json",
  "type": "object",
  "required": ["name", "nodes", "edges"],
  "properties": {
    "name": {
      "type": "string",
      "minLength": 1
    },
    "description": { "type": "string" },
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": "array",
      "items": { "$ref": "#/$defs/edge" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "kind", "subtype", "position"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "kind": {
          "type": "string",
          "enum": ["trigger", "action", "logic"]
        },
        "subtype": {
          "type": "string",
          "minLength": 1
        },
        "channel": {
          "type": "string",
          "enum": ["email", "sms", "whatsapp", "rcs", "letter"]
        },
        "position": {
          "type": "object",
          "required": ["x", "y"],
          "properties": {
            "x": { "type": "number" },
            "y": { "type": "number" }
          },
          "additionalProperties": false
        },
        "config": { "type": "object" }
      },
      "additionalProperties": false
    },
    "edge": {
      "type": "object",
      "required": ["id", "source", "target"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "source": {
          "type": "string",
          "minLength": 1
        },
        "target": {
          "type": "string",
          "minLength": 1
        }
      },
      "additionalProperties": false
    }
  }
}`

// DefinitionValidator checks the structural shape of an AutomationDefinition
// using JSON Schema Draft 2020-12. It is safe for concurrent use.
type DefinitionValidator struct {
	compiled *jsonschema.Schema
}

// NewDefinitionValidator creates a DefinitionValidator with the automation
// schema pre-compiled.
func NewDefinitionValidator() (*DefinitionValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(automationSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal automation schema: %w", err)
	}
	const url = "https://flowbuilder.marqtools.dev/schemas/automation.json"
	if err := c.AddResource(url, schemaDoc); err != nil {
		return nil, fmt.Errorf("add automation schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile automation schema: %w", err)
	}

	return &DefinitionValidator{compiled: compiled}, nil
}

// Validate checks a definition against the automation JSON Schema, plus the
// duplicate-id checks the schema cannot express.
func (v *DefinitionValidator) Validate(def *schema.AutomationDefinition) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	if def == nil {
		result.AddError("", schema.IssueMalformedDefinition, "automation definition is nil")
		return result
	}

	doc, err := toJSONValue(def)
	if err != nil {
		result.AddError("", schema.IssueMalformedDefinition,
			"failed to serialize automation definition: "+err.Error())
		return result
	}

	if err := v.compiled.Validate(doc); err != nil {
		for _, violation := range collectViolations(err) {
			result.AddError("", schema.IssueMalformedDefinition, violation)
		}
		return result
	}

	seenNodes := make(map[string]bool, len(def.Nodes))
	for _, n := range def.Nodes {
		if seenNodes[n.ID] {
			result.AddError(n.ID, schema.IssueDuplicateNodeID,
				fmt.Sprintf("duplicate node id %q", n.ID))
		}
		seenNodes[n.ID] = true
	}
	seenEdges := make(map[string]bool, len(def.Edges))
	for _, e := range def.Edges {
		if seenEdges[e.ID] {
			result.AddEdgeError(e.ID, schema.IssueDuplicateEdge,
				fmt.Sprintf("duplicate edge id %q", e.ID))
		}
		seenEdges[e.ID] = true
	}

	return result
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// collectViolations flattens a jsonschema error into leaf messages with
// their instance locations for inline display in the editor.
func collectViolations(err error) []string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	return collectLeaves(verr)
}

func collectLeaves(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectLeaves(cause)...)
	}
	return violations
}
