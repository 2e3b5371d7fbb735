package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionalStage(t *testing.T) {
	ctx := exprCtx()
	corpus := testCorpus(map[string]string{"agents/a.md": "x"})

	run := func(t *testing.T, text string) (string, error) {
		t.Helper()
		st := testState("agents/a.md", corpus, ctx)
		return conditionalStage{}.Transform(text, st)
	}

	t.Run("true branch kept", func(t *testing.T) {
		out, err := run(t, "a\n{{if:pack(react)}}\nkept\n{{endif}}\nb")
		require.NoError(t, err)
		assert.Equal(t, "a\nkept\nb", out)
	})

	t.Run("false branch dropped without blank line", func(t *testing.T) {
		out, err := run(t, "a\n{{if:pack(angular)}}\ndropped\n{{endif}}\nb")
		require.NoError(t, err)
		assert.Equal(t, "a\nb", out)
	})

	t.Run("else branch", func(t *testing.T) {
		out, err := run(t, "{{if:pack(angular)}}\nthen\n{{else}}\notherwise\n{{endif}}")
		require.NoError(t, err)
		assert.Equal(t, "otherwise", out)
	})

	t.Run("nested blocks resolve innermost first", func(t *testing.T) {
		text := "{{if:pack(react)}}\nouter\n{{if:env(CI)}}\ninner\n{{endif}}\n{{endif}}"
		out, err := run(t, text)
		require.NoError(t, err)
		assert.Equal(t, "outer\ninner", out)
	})

	t.Run("nested false inner inside true outer", func(t *testing.T) {
		text := "{{if:pack(react)}}\nouter\n{{if:env(UNSET)}}\ninner\n{{endif}}\n{{endif}}"
		out, err := run(t, text)
		require.NoError(t, err)
		assert.Equal(t, "outer", out)
	})

	t.Run("false outer discards inner wholesale", func(t *testing.T) {
		text := "a\n{{if:pack(angular)}}\n{{if:env(CI)}}\ninner\n{{endif}}\n{{endif}}\nb"
		out, err := run(t, text)
		require.NoError(t, err)
		assert.Equal(t, "a\nb", out)
	})

	t.Run("unknown function aborts", func(t *testing.T) {
		_, err := run(t, "{{if:mystery(x)}}\nbody\n{{endif}}")
		var unknown *UnknownFunctionError
		require.ErrorAs(t, err, &unknown)
	})

	t.Run("unresolved operand means false not error", func(t *testing.T) {
		out, err := run(t, "{{if:config(ghost.path)}}\nhidden\n{{else}}\nshown\n{{endif}}")
		require.NoError(t, err)
		assert.Equal(t, "shown", out)
	})

	t.Run("dangling endif left for validation", func(t *testing.T) {
		out, err := run(t, "text\n{{endif}}")
		require.NoError(t, err)
		assert.Equal(t, "text\n{{endif}}", out)
	})

	t.Run("sequential blocks", func(t *testing.T) {
		text := "{{if:pack(react)}}\none\n{{endif}}\n{{if:env(CI)}}\ntwo\n{{endif}}"
		out, err := run(t, text)
		require.NoError(t, err)
		assert.Equal(t, "one\ntwo", out)
	})
}
