package schema

import "fmt"

// Validation issue codes. Errors block saving; warnings are advisory.
const (
	IssueMissingTrigger          = "missing_trigger"
	IssueDanglingConditionSource = "dangling_condition_source"
	IssueInvalidConditionStatus  = "invalid_condition_status"
	IssueIncompleteNodeConfig    = "incomplete_node_config"
	IssueUnknownNodeKind         = "unknown_node_kind"
	IssueDuplicateNodeID         = "duplicate_node_id"
	IssueDanglingEdge            = "dangling_edge"
	IssueSelfLoop                = "self_loop"
	IssueDuplicateEdge           = "duplicate_edge"
	IssueInvalidFilterExpression = "invalid_filter_expression"
	IssueInvalidTriggerSchedule  = "invalid_trigger_schedule"
	IssueUnreachableNode         = "unreachable_node"
	IssueCycleDetected           = "cycle_detected"
	IssueMalformedDefinition     = "malformed_definition"
)

// ValidationSeverity indicates whether an issue is an error or warning.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is a single validation problem, located by the node or
// edge it concerns. Graph-wide issues (e.g. missing_trigger) carry neither.
type ValidationIssue struct {
	NodeID   string             `json:"node_id,omitempty"`
	EdgeID   string             `json:"edge_id,omitempty"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

// ValidationResult aggregates all issues from the validation pipeline.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// Valid returns true if there are no errors (warnings are acceptable).
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// AddError appends an error-severity issue located at a node.
// nodeID may be empty for graph-wide issues.
func (r *ValidationResult) AddError(nodeID, code, message string) {
	r.Errors = append(r.Errors, ValidationIssue{
		NodeID: nodeID, Code: code, Message: message, Severity: SeverityError,
	})
}

// AddEdgeError appends an error-severity issue located at an edge.
func (r *ValidationResult) AddEdgeError(edgeID, code, message string) {
	r.Errors = append(r.Errors, ValidationIssue{
		EdgeID: edgeID, Code: code, Message: message, Severity: SeverityError,
	})
}

// AddWarning appends a warning-severity issue located at a node.
func (r *ValidationResult) AddWarning(nodeID, code, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{
		NodeID: nodeID, Code: code, Message: message, Severity: SeverityWarning,
	})
}

// Merge combines another ValidationResult into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ToError converts the result to a FlowError if invalid, nil if valid.
func (r *ValidationResult) ToError() error {
	if r.Valid() {
		return nil
	}

	msg := r.Errors[0].Message
	if len(r.Errors) > 1 {
		msg = fmt.Sprintf("validation failed with %d errors", len(r.Errors))
	}

	return NewError(ErrCodeValidation, msg).
		WithDetails(map[string]any{
			"error_count":   len(r.Errors),
			"warning_count": len(r.Warnings),
			"errors":        r.Errors,
			"warnings":      r.Warnings,
		})
}
