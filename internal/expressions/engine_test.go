package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleContact = map[string]any{
	"email": "ana@example.com",
	"age":   34,
	"tags":  []any{"vip", "newsletter"},
}

func TestNewEngines_AllLanguages(t *testing.T) {
	engs, err := NewEngines()
	require.NoError(t, err)

	for _, lang := range []string{LanguageExpr, LanguageCEL, LanguageJQ} {
		eng, err := engs.ForLanguage(lang)
		require.NoError(t, err)
		assert.Equal(t, lang, eng.Name())
	}
}

func TestEngines_DefaultLanguage(t *testing.T) {
	engs, err := NewEngines()
	require.NoError(t, err)

	eng, err := engs.ForLanguage("")
	require.NoError(t, err)
	assert.Equal(t, LanguageExpr, eng.Name())
}

func TestEngines_UnknownLanguage(t *testing.T) {
	engs, err := NewEngines()
	require.NoError(t, err)

	_, err = engs.ForLanguage("cobol")
	assert.Error(t, err)
}

// --- Expr ---

func TestExprEngine_Evaluate(t *testing.T) {
	e := NewExprEngine()
	out, err := e.Evaluate(context.Background(), `age > 30 and "vip" in tags`, sampleContact)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExprEngine_Check(t *testing.T) {
	e := NewExprEngine()
	assert.NoError(t, e.Check(`age > 30`))
	assert.Error(t, e.Check(`age >`))
	assert.Error(t, e.Check(""))
}

func TestExprEngine_CacheReuse(t *testing.T) {
	e := NewExprEngine()
	require.NoError(t, e.Check(`age > 30`))
	require.Len(t, e.cache, 1)

	_, err := e.Evaluate(context.Background(), `age > 30`, sampleContact)
	require.NoError(t, err)
	assert.Len(t, e.cache, 1)
}

// --- CEL ---

func TestCELEngine_Evaluate(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	out, err := e.Evaluate(context.Background(), `contact.age > 30`, sampleContact)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCELEngine_Check(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	assert.NoError(t, e.Check(`contact.age > 30`))
	assert.Error(t, e.Check(`contact.age >`))
	assert.Error(t, e.Check(""))
}

// --- GoJQ ---

func TestGoJQEngine_Evaluate(t *testing.T) {
	e := NewGoJQEngine()
	out, err := e.Evaluate(context.Background(), `.tags | contains(["vip"])`, sampleContact)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestGoJQEngine_MultipleOutputs(t *testing.T) {
	e := NewGoJQEngine()
	out, err := e.Evaluate(context.Background(), `.tags[]`, sampleContact)
	require.NoError(t, err)
	assert.Equal(t, []any{"vip", "newsletter"}, out)
}

func TestGoJQEngine_Check(t *testing.T) {
	e := NewGoJQEngine()
	assert.NoError(t, e.Check(`.age > 30`))
	assert.Error(t, e.Check(`.age >`))
	assert.Error(t, e.Check(""))
}

func TestEngines_NilContact(t *testing.T) {
	engs, err := NewEngines()
	require.NoError(t, err)

	cases := map[string]string{
		LanguageExpr: `1 + 1`,
		LanguageCEL:  `1 + 1`,
		LanguageJQ:   `1 + 1`,
	}
	for lang, expression := range cases {
		eng, err := engs.ForLanguage(lang)
		require.NoError(t, err)
		_, err = eng.Evaluate(context.Background(), expression, nil)
		assert.NoError(t, err, lang)
	}
}
