package template

import "fmt"

// IncludeNotFoundError is the fail-fast error for a non-optional include
// whose target is absent from the composed corpus.
type IncludeNotFoundError struct {
	Doc    string // document being processed
	Target string // include argument
	Offset int    // byte offset of the directive in the text being transformed
}

func (e *IncludeNotFoundError) Error() string {
	return fmt.Sprintf("%s: include target %q not found in composed corpus (offset %d)", e.Doc, e.Target, e.Offset)
}

// IncludeCycleError is the fail-fast error for mutually-including
// documents. Chain holds the inclusion path, ending at the repeated
// document.
type IncludeCycleError struct {
	Chain []string
}

func (e *IncludeCycleError) Error() string {
	return fmt.Sprintf("include cycle: %s", joinChain(e.Chain))
}

// IncludeDepthError is the fail-fast error for include nesting beyond the
// recursion cap.
type IncludeDepthError struct {
	Doc   string
	Depth int
}

func (e *IncludeDepthError) Error() string {
	return fmt.Sprintf("%s: include nesting exceeds maximum depth %d", e.Doc, e.Depth)
}

// SectionNotFoundError is the fail-fast error for a section extraction
// whose target document or section does not exist.
type SectionNotFoundError struct {
	Doc     string // document being processed
	Target  string // referenced document
	Section string
	Offset  int
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("%s: section-include target %s#%s not found in composed corpus (offset %d)", e.Doc, e.Target, e.Section, e.Offset)
}

// UnknownFunctionError is the fail-fast error for an unrecognized
// conditional function name. A merely-false condition is not an error;
// an unknown function is.
type UnknownFunctionError struct {
	Doc    string
	Name   string
	Expr   string
	Offset int
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("%s: unknown conditional function %q in expression %q (offset %d)", e.Doc, e.Name, e.Expr, e.Offset)
}

// AmbiguousTargetError is the fail-fast error for a bare-basename document
// reference matching more than one corpus document.
type AmbiguousTargetError struct {
	Doc     string
	Target  string
	Matches []string
	Offset  int
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("%s: document reference %q is ambiguous (matches %s)", e.Doc, e.Target, joinChain(e.Matches))
}

func joinChain(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " -> "
		}
		out += p
	}
	return out
}
