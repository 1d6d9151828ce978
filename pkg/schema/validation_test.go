package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult_EmptyIsValid(t *testing.T) {
	r := &ValidationResult{}
	assert.True(t, r.Valid())
	assert.NoError(t, r.ToError())
}

func TestValidationResult_WarningsStayValid(t *testing.T) {
	r := &ValidationResult{}
	r.AddWarning("n1", IssueUnreachableNode, "node is unreachable")
	assert.True(t, r.Valid())
	assert.NoError(t, r.ToError())
}

func TestValidationResult_ErrorsInvalidate(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("", IssueMissingTrigger, "automation has no trigger node")
	assert.False(t, r.Valid())

	err := r.ToError()
	require.Error(t, err)

	fe, ok := err.(*FlowError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, fe.Code)
	assert.Equal(t, "automation has no trigger node", fe.Message)
}

func TestValidationResult_MultiErrorSummary(t *testing.T) {
	r := &ValidationResult{}
	r.AddError("n1", IssueIncompleteNodeConfig, "missing subject")
	r.AddEdgeError("e1", IssueDanglingEdge, "edge references removed node")

	err := r.ToError()
	require.Error(t, err)

	fe := err.(*FlowError)
	assert.Contains(t, fe.Message, "2 errors")
	assert.Equal(t, 2, fe.Details["error_count"])
}

func TestValidationResult_Merge(t *testing.T) {
	a := &ValidationResult{}
	a.AddError("n1", IssueMissingTrigger, "no trigger")

	b := &ValidationResult{}
	b.AddWarning("n2", IssueCycleDetected, "cycle through n2")

	a.Merge(b)
	assert.Len(t, a.Errors, 1)
	assert.Len(t, a.Warnings, 1)

	a.Merge(nil)
	assert.Len(t, a.Errors, 1)
}

func TestFlowError_NodeContext(t *testing.T) {
	err := NewErrorf(ErrCodeValidation, "status %q not in vocabulary", "aberto").WithNode("n3")
	assert.Equal(t, `[VALIDATION_ERROR] node n3: status "aberto" not in vocabulary`, err.Error())
}

func TestFlowError_Unwrap(t *testing.T) {
	cause := assert.AnError
	err := NewError(ErrCodeStore, "persist automation").WithCause(cause)
	assert.ErrorIs(t, err, cause)
}
