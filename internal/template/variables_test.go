package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigVarStage(t *testing.T) {
	corpus := testCorpus(map[string]string{"agents/a.md": "x"})
	ctx := testCtx(map[string]interface{}{
		"team": map[string]interface{}{
			"name":  "platform",
			"langs": []interface{}{"go", "rust"},
		},
		"tricky": "{{inner}}",
	})

	t.Run("substitutes resolved paths", func(t *testing.T) {
		st := testState("agents/a.md", corpus, ctx)
		out, err := configVarStage{}.Transform("Team: {{config:team.name}}", st)
		require.NoError(t, err)
		assert.Equal(t, "Team: platform", unmaskLiteral(out))
		assert.Contains(t, st.Report.Summary().VariablesResolved, "team.name")
	})

	t.Run("list values render comma joined", func(t *testing.T) {
		st := testState("agents/a.md", corpus, ctx)
		out, err := configVarStage{}.Transform("{{config:team.langs}}", st)
		require.NoError(t, err)
		assert.Equal(t, "go, rust", unmaskLiteral(out))
	})

	t.Run("missing path keeps the placeholder without failing", func(t *testing.T) {
		st := testState("agents/a.md", corpus, ctx)
		out, err := configVarStage{}.Transform("x {{config:a.b.c}} y", st)
		require.NoError(t, err)
		assert.Equal(t, "x {{config:a.b.c}} y", out)
		assert.Contains(t, st.Report.VariablesMissing(), "a.b.c")
		assert.False(t, st.Report.HasErrors())
	})

	t.Run("substituted value with directive syntax stays literal", func(t *testing.T) {
		st := testState("agents/a.md", corpus, ctx)
		out, err := configVarStage{}.Transform("{{config:tricky}}", st)
		require.NoError(t, err)
		assert.NotContains(t, out, "{{inner}}")
		assert.Equal(t, "{{inner}}", unmaskLiteral(out))
	})
}

func TestContextVarStage(t *testing.T) {
	corpus := testCorpus(map[string]string{"agents/a.md": "x"})
	ctx := testCtx(nil, "react", "vitest")

	st := testState("agents/a.md", corpus, ctx)
	out, err := contextVarStage{}.Transform(
		"at {{ctx:timestamp}} by v{{ctx:version}} packs [{{ctx:packs}}] from {{ctx:layers}}", st)
	require.NoError(t, err)
	assert.Equal(t,
		"at 2026-08-24T12:00:00Z by vtest packs [react, vitest] from core",
		unmaskLiteral(out))

	t.Run("unknown name keeps placeholder", func(t *testing.T) {
		st := testState("agents/a.md", corpus, ctx)
		out, err := contextVarStage{}.Transform("{{ctx:moonphase}}", st)
		require.NoError(t, err)
		assert.Equal(t, "{{ctx:moonphase}}", out)
		assert.Contains(t, st.Report.VariablesMissing(), "ctx:moonphase")
	})
}

func TestPathVarStage(t *testing.T) {
	corpus := testCorpus(map[string]string{"agents/a.md": "x"})
	st := testState("agents/a.md", corpus, nil)

	out, err := pathVarStage{}.Transform(
		"{{path:root}} {{path:output}} {{path:core}} {{path:packs}} {{path:project}}", st)
	require.NoError(t, err)
	assert.Equal(t,
		"/proj /proj/out /proj/core /proj/packs /proj/project",
		unmaskLiteral(out))
}

func TestReferenceStage(t *testing.T) {
	corpus := testCorpus(map[string]string{
		"agents/G.md": "<!-- SECTION: tdd -->\nTest first\n<!-- /SECTION: tdd -->",
		"agents/a.md": "x",
	})

	t.Run("emits a pointer not the content", func(t *testing.T) {
		st := testState("agents/a.md", corpus, nil)
		out, err := referenceStage{}.Transform("{{ref:G.md#tdd|testing policy}}", st)
		require.NoError(t, err)
		assert.Equal(t, "See agents/G.md#tdd (testing policy)", out)
		assert.NotContains(t, out, "Test first")
		assert.Empty(t, st.Report.Warnings())
	})

	t.Run("empty purpose omits the parenthetical", func(t *testing.T) {
		st := testState("agents/a.md", corpus, nil)
		out, err := referenceStage{}.Transform("{{ref:G.md#tdd|}}", st)
		require.NoError(t, err)
		assert.Equal(t, "See agents/G.md#tdd", out)
	})

	t.Run("missing target warns but still emits the pointer", func(t *testing.T) {
		st := testState("agents/a.md", corpus, nil)
		out, err := referenceStage{}.Transform("{{ref:gone.md#x|p}}", st)
		require.NoError(t, err)
		assert.Equal(t, "See gone.md#x (p)", out)
		require.Len(t, st.Report.Warnings(), 1)
		assert.Contains(t, st.Report.Warnings()[0], "gone.md#x")
		assert.False(t, st.Report.HasErrors())
	})

	t.Run("missing section warns", func(t *testing.T) {
		st := testState("agents/a.md", corpus, nil)
		out, err := referenceStage{}.Transform("{{ref:G.md#ghost|p}}", st)
		require.NoError(t, err)
		assert.Equal(t, "See agents/G.md#ghost (p)", out)
		require.Len(t, st.Report.Warnings(), 1)
	})
}

func TestValidateStage(t *testing.T) {
	corpus := testCorpus(map[string]string{"agents/a.md": "x"})
	st := testState("agents/a.md", corpus, nil)

	text := "ok {{config:never.resolved}} and {{mystery}}"
	out, err := validateStage{}.Transform(text, st)
	require.NoError(t, err)

	assert.Equal(t, text, out)
	missing := st.Report.VariablesMissing()
	assert.Contains(t, missing, "{{config:never.resolved}}")
	assert.Contains(t, missing, "{{mystery}}")
	assert.Len(t, st.Report.Warnings(), 2)
	assert.False(t, st.Report.HasErrors())
}
