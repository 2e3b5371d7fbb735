package template

import (
	"strings"

	"layerweave/internal/config"
	"layerweave/internal/report"
)

// State carries everything a stage may consult while transforming one
// document: the document's corpus key, the shared read-only corpus, the
// run context, and the shared report.
type State struct {
	DocKey string
	Corpus *Corpus
	Ctx    *config.Context
	Report *report.Report
}

// Stage is one transformation of the nine-stage pipeline. Transform is a
// pure function of (text, state) plus report side effects. An error return
// aborts the whole run; graceful stages record problems instead of
// returning them.
type Stage interface {
	Name() string
	Transform(text string, st *State) (string, error)
}

// Substituted data values must not reintroduce directive syntax for later
// stages: directive delimiters inside them are masked with private-use
// sentinels and restored to literal braces after validation.
const (
	maskedOpen  = "\uE000"
	maskedClose = "\uE001"
)

// maskLiteral neutralizes directive delimiters in a substituted value so
// later stages treat the value as literal text.
func maskLiteral(s string) string {
	s = strings.ReplaceAll(s, "{{", maskedOpen)
	return strings.ReplaceAll(s, "}}", maskedClose)
}

// unmaskLiteral restores masked delimiters. Runs once, after validation.
func unmaskLiteral(s string) string {
	s = strings.ReplaceAll(s, maskedOpen, "{{")
	return strings.ReplaceAll(s, maskedClose, "}}")
}

// trimBlockEdges removes a single leading and trailing line break from a
// conditional or loop branch, so block markers placed on their own lines
// do not leave blank lines behind.
func trimBlockEdges(s string) string {
	s = strings.TrimPrefix(s, "\n")
	return strings.TrimSuffix(s, "\n")
}
