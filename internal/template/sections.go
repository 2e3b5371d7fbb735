package template

import (
	"regexp"
	"strings"
)

// sectionIncludeRe matches {{section-include:doc#section}}.
var sectionIncludeRe = regexp.MustCompile(`\{\{section-include:([^{}#|]+)#([^{}|]+)\}\}`)

// sectionStage replaces a document#section directive with exactly that
// section's merged body as found in the composed corpus, trimmed of
// leading and trailing blank lines. This is the directive that requires
// Phase 1 to have fully completed for the referenced document, including
// all of its pack and project extensions. Missing targets fail the run.
type sectionStage struct{}

func (sectionStage) Name() string { return "section-extraction" }

func (sectionStage) Transform(text string, st *State) (string, error) {
	if !strings.Contains(text, "{{section-include:") {
		return text, nil
	}

	var out strings.Builder
	last := 0
	for _, m := range sectionIncludeRe.FindAllStringSubmatchIndex(text, -1) {
		out.WriteString(text[last:m[0]])
		last = m[1]

		target := strings.TrimSpace(text[m[2]:m[3]])
		name := strings.TrimSpace(text[m[4]:m[5]])

		doc, matches, ok := st.Corpus.Resolve(target)
		if !ok {
			if len(matches) > 1 {
				return "", &AmbiguousTargetError{Doc: st.DocKey, Target: target, Matches: matches, Offset: m[0]}
			}
			return "", &SectionNotFoundError{Doc: st.DocKey, Target: target, Section: name, Offset: m[0]}
		}

		body, found := st.Corpus.SectionBody(doc, name)
		if !found {
			return "", &SectionNotFoundError{Doc: st.DocKey, Target: doc.Key, Section: name, Offset: m[0]}
		}

		st.Report.RecordSectionExtracted(doc.Key + "#" + name)
		out.WriteString(body)
	}
	out.WriteString(text[last:])

	return out.String(), nil
}
