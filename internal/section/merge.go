package section

import (
	"fmt"
	"sort"
	"strings"
)

// LayerInput pairs a parsed document with a provenance label ("core",
// "pack:vitest", "project") used in diagnostics. Inputs are given in
// precedence order.
type LayerInput struct {
	Origin string
	Doc    *Document
}

// mergeEntry accumulates one section's contributions across the chain.
type mergeEntry struct {
	name         string
	base         string // body of the base definition
	sawBase      bool
	extends      []string // appended bodies, encounter order
	order        int      // first-encounter order across the chain
	extendOrigin string   // origin of the first extend, for orphan errors
}

// Merge folds every layer's extend blocks into the base sections, in
// precedence order. Within one layer, file-internal order is a stable
// sub-order. Rules:
//
//   - The first base SECTION definition for a name anchors the section;
//     extends append to it with a single separating line break.
//   - A later layer re-defining a base SECTION replaces the base body but
//     keeps extends contributed by other layers.
//   - An EXTEND whose target is not yet seen is promoted provisionally;
//     the promotion is valid only if some layer in the chain defines the
//     base. Otherwise the merge fails with a StructuralError once the
//     whole chain has been processed (the base may legitimately appear in
//     a later layer, so per-layer validation would be wrong).
//
// The result is in first-encounter order across the chain.
func Merge(layers []LayerInput) ([]*Section, error) {
	entries := make(map[string]*mergeEntry)
	var ordered []*mergeEntry

	touch := func(name string) *mergeEntry {
		e, ok := entries[name]
		if !ok {
			e = &mergeEntry{name: name, order: len(ordered)}
			entries[name] = e
			ordered = append(ordered, e)
		}
		return e
	}

	for _, l := range layers {
		for _, node := range l.Doc.Nodes {
			switch node.Kind {
			case NodeSection:
				e := touch(node.Section.Name)
				e.base = node.Section.Body
				e.sawBase = true
			case NodeExtend:
				e := touch(node.Section.Name)
				e.extends = append(e.extends, node.Section.Body)
				if e.extendOrigin == "" {
					e.extendOrigin = l.Origin
				}
			}
		}
	}

	// Orphan check runs only after the full chain has merged.
	var orphans []string
	for _, e := range ordered {
		if !e.sawBase {
			orphans = append(orphans, fmt.Sprintf("%s (first extended in %s)", e.name, e.extendOrigin))
		}
	}
	if len(orphans) > 0 {
		sort.Strings(orphans)
		return nil, &StructuralError{
			Msg: fmt.Sprintf("extend blocks target sections never defined as a base: %s",
				strings.Join(orphans, ", ")),
		}
	}

	merged := make([]*Section, 0, len(ordered))
	for _, e := range ordered {
		parts := make([]string, 0, len(e.extends)+1)
		if e.base != "" {
			parts = append(parts, e.base)
		}
		for _, ext := range e.extends {
			if ext != "" {
				parts = append(parts, ext)
			}
		}
		merged = append(merged, &Section{
			Name: e.name,
			Body: strings.Join(parts, "\n"),
		})
	}

	return merged, nil
}
