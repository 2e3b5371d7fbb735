package template

import (
	"fmt"
	"regexp"
)

// leftoverRe matches any remaining directive-shaped syntax after stages
// 1-8 have run.
var leftoverRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// validateStage scans the fully-processed text for directive-shaped
// leftovers. Every match is recorded as a missing variable and a warning;
// the stage never mutates text and never errors.
type validateStage struct{}

func (validateStage) Name() string { return "validation" }

func (validateStage) Transform(text string, st *State) (string, error) {
	for _, match := range leftoverRe.FindAllString(text, -1) {
		st.Report.RecordVariable(match, false)
		st.Report.RecordWarning(fmt.Sprintf("%s: unresolved directive %s", st.DocKey, match))
	}
	return text, nil
}
