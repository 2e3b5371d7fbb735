package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionStage(t *testing.T) {
	gmd := "intro\n<!-- SECTION: tdd -->\nTest first\nUse vitest\n<!-- /SECTION: tdd -->\n"

	t.Run("extracts exactly the merged body", func(t *testing.T) {
		corpus := testCorpus(map[string]string{
			"agents/G.md":     gmd,
			"agents/agent.md": "{{section-include:G.md#tdd}}",
		})
		st := testState("agents/agent.md", corpus, nil)

		out, err := sectionStage{}.Transform("{{section-include:G.md#tdd}}", st)
		require.NoError(t, err)
		assert.Equal(t, "Test first\nUse vitest", out)

		extracted := st.Report.Summary().SectionsExtracted
		assert.Equal(t, []string{"agents/G.md#tdd"}, extracted)
	})

	t.Run("body is trimmed of surrounding blank lines", func(t *testing.T) {
		corpus := testCorpus(map[string]string{
			"agents/G.md": "<!-- SECTION: s -->\n\npadded\n\n<!-- /SECTION: s -->",
			"agents/a.md": "x",
		})
		st := testState("agents/a.md", corpus, nil)

		out, err := sectionStage{}.Transform("{{section-include:G.md#s}}", st)
		require.NoError(t, err)
		assert.Equal(t, "padded", out)
	})

	t.Run("missing document is a hard error", func(t *testing.T) {
		corpus := testCorpus(map[string]string{"agents/a.md": "x"})
		st := testState("agents/a.md", corpus, nil)

		_, err := sectionStage{}.Transform("see:\n{{section-include:gone.md#s}}", st)
		var nf *SectionNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "gone.md", nf.Target)
		assert.Equal(t, 5, nf.Offset)
	})

	t.Run("missing section is a hard error", func(t *testing.T) {
		corpus := testCorpus(map[string]string{
			"agents/G.md": gmd,
			"agents/a.md": "x",
		})
		st := testState("agents/a.md", corpus, nil)

		_, err := sectionStage{}.Transform("{{section-include:G.md#ghost}}", st)
		var nf *SectionNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "ghost", nf.Section)
	})

	t.Run("round trip against phase one output", func(t *testing.T) {
		// The extracted text must be byte-identical to the merged body in
		// the composed document, modulo the blank-line trim.
		corpus := testCorpus(map[string]string{
			"agents/G.md": gmd,
			"agents/a.md": "x",
		})
		st := testState("agents/a.md", corpus, nil)

		doc, _, ok := corpus.Resolve("agents/G.md")
		require.True(t, ok)
		body, ok := corpus.SectionBody(doc, "tdd")
		require.True(t, ok)

		out, err := sectionStage{}.Transform("{{section-include:agents/G.md#tdd}}", st)
		require.NoError(t, err)
		assert.Equal(t, body, out)
	})
}
