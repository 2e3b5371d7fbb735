package section

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	openMarker  = regexp.MustCompile(`^\s*<!--\s*(SECTION|EXTEND):\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*-->\s*$`)
	closeMarker = regexp.MustCompile(`^\s*<!--\s*/(SECTION|EXTEND):\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*-->\s*$`)
)

// Parse splits a document into text nodes, base sections and extend
// blocks. Within one document a given name may appear as at most one base
// SECTION; it may appear as any number of EXTEND blocks. Marker blocks do
// not nest.
func Parse(text string) (*Document, error) {
	doc := &Document{}
	lines := strings.Split(text, "\n")

	var (
		textLines []string
		bodyLines []string
		open      *Section // current open block, nil when outside
		openKind  string   // "SECTION" or "EXTEND"
		baseSeen  = make(map[string]int)
	)

	flushText := func() {
		if len(textLines) > 0 {
			doc.Nodes = append(doc.Nodes, Node{Kind: NodeText, Text: strings.Join(textLines, "\n")})
			textLines = nil
		}
	}

	for i, line := range lines {
		lineno := i + 1

		if m := openMarker.FindStringSubmatch(line); m != nil {
			if open != nil {
				return nil, &StructuralError{Line: lineno,
					Msg: fmt.Sprintf("%s:%s opened inside unclosed %s:%s", m[1], m[2], openKind, open.Name)}
			}
			kind, name := m[1], m[2]
			if kind == "SECTION" {
				if prev, dup := baseSeen[name]; dup {
					return nil, &StructuralError{Line: lineno,
						Msg: fmt.Sprintf("duplicate base section %q (first defined at line %d)", name, prev)}
				}
				baseSeen[name] = lineno
			}
			flushText()
			open = &Section{Name: name, IsExtension: kind == "EXTEND", Line: lineno}
			openKind = kind
			bodyLines = nil
			continue
		}

		if m := closeMarker.FindStringSubmatch(line); m != nil {
			kind, name := m[1], m[2]
			if open == nil {
				return nil, &StructuralError{Line: lineno,
					Msg: fmt.Sprintf("closing marker /%s:%s without matching open", kind, name)}
			}
			if kind != openKind || name != open.Name {
				return nil, &StructuralError{Line: lineno,
					Msg: fmt.Sprintf("closing marker /%s:%s does not match open %s:%s", kind, name, openKind, open.Name)}
			}
			open.Body = strings.Join(bodyLines, "\n")
			node := Node{Kind: NodeSection, Section: open}
			if open.IsExtension {
				node.Kind = NodeExtend
				doc.Extends = append(doc.Extends, open)
			} else {
				doc.Sections = append(doc.Sections, open)
			}
			doc.Nodes = append(doc.Nodes, node)
			open = nil
			bodyLines = nil
			continue
		}

		if open != nil {
			bodyLines = append(bodyLines, line)
		} else {
			textLines = append(textLines, line)
		}
	}

	if open != nil {
		return nil, &StructuralError{Line: open.Line,
			Msg: fmt.Sprintf("unclosed %s:%s", openKind, open.Name)}
	}
	flushText()

	return doc, nil
}

// EmitSection renders a merged section with base markers. The body is
// emitted exactly as merged so that re-parsing yields the same body.
func EmitSection(s *Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!-- SECTION: %s -->\n", s.Name)
	if s.Body != "" {
		b.WriteString(s.Body)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "<!-- /SECTION: %s -->", s.Name)
	return b.String()
}
