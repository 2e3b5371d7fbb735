package section

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) *Document {
	t.Helper()
	doc, err := Parse(text)
	require.NoError(t, err)
	return doc
}

func layerChain(t *testing.T, texts ...string) []LayerInput {
	t.Helper()
	origins := []string{"core", "pack:p1", "pack:p2", "project"}
	inputs := make([]LayerInput, len(texts))
	for i, text := range texts {
		origin := "layer"
		if i < len(origins) {
			origin = origins[i]
		}
		inputs[i] = LayerInput{Origin: origin, Doc: mustParse(t, text)}
	}
	return inputs
}

func TestMerge_PrecedenceLaw(t *testing.T) {
	core := "<!-- SECTION: s -->\na\n<!-- /SECTION: s -->"
	p1 := "<!-- EXTEND: s -->\nb\n<!-- /EXTEND: s -->"
	p2 := "<!-- EXTEND: s -->\nc\n<!-- /EXTEND: s -->"
	project := "<!-- EXTEND: s -->\nd\n<!-- /EXTEND: s -->"

	t.Run("packs in activation order", func(t *testing.T) {
		merged, err := Merge(layerChain(t, core, p1, p2, project))
		require.NoError(t, err)

		require.Len(t, merged, 1)
		assert.Equal(t, "a\nb\nc\nd", merged[0].Body)
	})

	t.Run("reversing pack order reverses only the pack contributions", func(t *testing.T) {
		merged, err := Merge(layerChain(t, core, p2, p1, project))
		require.NoError(t, err)

		require.Len(t, merged, 1)
		assert.Equal(t, "a\nc\nb\nd", merged[0].Body)
	})
}

func TestMerge_FileInternalExtendOrder(t *testing.T) {
	// Two extends of the same section within one layer file keep their
	// file order as a stable sub-order.
	core := "<!-- SECTION: s -->\nbase\n<!-- /SECTION: s -->"
	pack := "<!-- EXTEND: s -->\nfirst\n<!-- /EXTEND: s -->\n<!-- EXTEND: s -->\nsecond\n<!-- /EXTEND: s -->"

	merged, err := Merge(layerChain(t, core, pack))
	require.NoError(t, err)

	require.Len(t, merged, 1)
	assert.Equal(t, "base\nfirst\nsecond", merged[0].Body)
}

func TestMerge_OrphanExtend(t *testing.T) {
	t.Run("extend with no base anywhere fails", func(t *testing.T) {
		core := "prose only"
		pack := "<!-- EXTEND: ghost -->\nx\n<!-- /EXTEND: ghost -->"

		_, err := Merge(layerChain(t, core, pack))
		require.Error(t, err)

		var se *StructuralError
		require.ErrorAs(t, err, &se)
		assert.Contains(t, se.Msg, "ghost")
		assert.Contains(t, se.Msg, "pack:p1")
	})

	t.Run("base defined by a later layer legitimizes an earlier extend", func(t *testing.T) {
		core := "<!-- EXTEND: late -->\nearly note\n<!-- /EXTEND: late -->"
		pack := "<!-- SECTION: late -->\nanchor\n<!-- /SECTION: late -->"

		merged, err := Merge(layerChain(t, core, pack))
		require.NoError(t, err)

		require.Len(t, merged, 1)
		assert.Equal(t, "anchor\nearly note", merged[0].Body)
	})
}

func TestMerge_PackIntroducedSection(t *testing.T) {
	core := "<!-- SECTION: s -->\na\n<!-- /SECTION: s -->"
	pack := "<!-- SECTION: extra -->\npack content\n<!-- /SECTION: extra -->"
	project := "<!-- EXTEND: extra -->\nproject addition\n<!-- /EXTEND: extra -->"

	merged, err := Merge(layerChain(t, core, pack, "", project))
	require.NoError(t, err)

	want := []*Section{
		{Name: "s", Body: "a"},
		{Name: "extra", Body: "pack content\nproject addition"},
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merged sections mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_EmptyAnchorSection(t *testing.T) {
	// The "empty anchor section for additions" pattern: an empty base
	// section collects extends without a leading blank line.
	core := "<!-- SECTION: additions -->\n<!-- /SECTION: additions -->"
	pack := "<!-- EXTEND: additions -->\nfrom pack\n<!-- /EXTEND: additions -->"

	merged, err := Merge(layerChain(t, core, pack))
	require.NoError(t, err)

	require.Len(t, merged, 1)
	assert.Equal(t, "from pack", merged[0].Body)
}

func TestMerge_BaseRedefinition(t *testing.T) {
	// A later layer re-defining the base replaces the base body but keeps
	// extends contributed by other layers.
	core := "<!-- SECTION: s -->\noriginal\n<!-- /SECTION: s -->"
	pack := "<!-- EXTEND: s -->\naddition\n<!-- /EXTEND: s -->"
	project := "<!-- SECTION: s -->\nreplacement\n<!-- /SECTION: s -->"

	merged, err := Merge(layerChain(t, core, pack, "", project))
	require.NoError(t, err)

	require.Len(t, merged, 1)
	assert.Equal(t, "replacement\naddition", merged[0].Body)
}

func TestMerge_FirstEncounterOrder(t *testing.T) {
	core := "<!-- SECTION: one -->\n1\n<!-- /SECTION: one -->"
	pack := "<!-- SECTION: two -->\n2\n<!-- /SECTION: two -->\n<!-- EXTEND: one -->\n1b\n<!-- /EXTEND: one -->"

	merged, err := Merge(layerChain(t, core, pack))
	require.NoError(t, err)

	require.Len(t, merged, 2)
	assert.Equal(t, "one", merged[0].Name)
	assert.Equal(t, "two", merged[1].Name)
	assert.Equal(t, "1\n1b", merged[0].Body)
}

func TestMerge_Idempotence(t *testing.T) {
	// Re-merging the emitted result of a merge (as a single layer with no
	// extends) yields the same sections.
	core := "<!-- SECTION: s -->\na\n<!-- /SECTION: s -->"
	pack := "<!-- EXTEND: s -->\nb\n<!-- /EXTEND: s -->"

	merged, err := Merge(layerChain(t, core, pack))
	require.NoError(t, err)

	emitted := EmitSection(merged[0])
	again, err := Merge(layerChain(t, emitted))
	require.NoError(t, err)

	require.Len(t, again, 1)
	assert.Equal(t, merged[0].Body, again[0].Body)
}
