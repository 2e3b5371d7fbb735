// Package section parses the SECTION/EXTEND marker grammar and merges
// section content across override layers.
//
// Two marker families only, line-anchored and comment-shaped so they
// survive markdown tooling:
//
//	<!-- SECTION: name -->  ...  <!-- /SECTION: name -->
//	<!-- EXTEND: name -->   ...  <!-- /EXTEND: name -->
//
// A base SECTION defines a named region; an EXTEND appends to a region
// defined by some layer in the chain. Markers are preserved through the
// merge so the template pass can still locate sections.
package section

import "fmt"

// Section is a named region inside a document.
type Section struct {
	Name string
	Body string
	// IsExtension is true when this section came from an EXTEND block
	// rather than a base SECTION definition.
	IsExtension bool
	// Line is the 1-based line of the opening marker in the source.
	Line int
}

// NodeKind discriminates document nodes.
type NodeKind int

const (
	NodeText NodeKind = iota
	NodeSection
	NodeExtend
)

// Node is one region of a parsed document: literal text, a base section,
// or an extend block. Node order equals file order.
type Node struct {
	Kind    NodeKind
	Text    string   // NodeText only
	Section *Section // NodeSection / NodeExtend only
}

// Document is the parse result for one layer source. Sections and Extends
// are views over Nodes, in file order.
type Document struct {
	Nodes    []Node
	Sections []*Section
	Extends  []*Section
}

// Section returns the named base section, or nil.
func (d *Document) Section(name string) *Section {
	for _, s := range d.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// StructuralError reports a violation of the section grammar or merge
// invariants: duplicate base definitions in one document, mismatched or
// unclosed markers, or an extend whose target never gains a base section
// anywhere in the layer chain.
type StructuralError struct {
	Doc  string // document path or entity id, may be empty at parse time
	Line int    // 1-based, 0 when not tied to a single line
	Msg  string
}

func (e *StructuralError) Error() string {
	switch {
	case e.Doc != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Doc, e.Line, e.Msg)
	case e.Doc != "":
		return fmt.Sprintf("%s: %s", e.Doc, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	default:
		return e.Msg
	}
}
