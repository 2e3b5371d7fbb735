package template

import (
	"regexp"
	"strings"

	"layerweave/internal/logging"
)

// maxIncludeDepth caps include nesting so a missed cycle cannot recurse
// unboundedly.
const maxIncludeDepth = 16

// includeRe matches {{include:doc}} and its optional variant
// {{include?:doc}}, which resolves to empty text when the target is
// absent instead of failing the run.
var includeRe = regexp.MustCompile(`\{\{include(\??):([^{}#|]+)\}\}`)

// includeStage replaces whole-file inclusion directives with the full text
// of the target document from the composed corpus, recursively. A cycle or
// a missing non-optional target aborts the run.
type includeStage struct{}

func (includeStage) Name() string { return "includes" }

func (includeStage) Transform(text string, st *State) (string, error) {
	return resolveIncludes(text, st, []string{st.DocKey})
}

func resolveIncludes(text string, st *State, chain []string) (string, error) {
	if len(chain) > maxIncludeDepth {
		return "", &IncludeDepthError{Doc: st.DocKey, Depth: maxIncludeDepth}
	}
	if !strings.Contains(text, "{{include") {
		return text, nil
	}

	var out strings.Builder
	last := 0
	for _, m := range includeRe.FindAllStringSubmatchIndex(text, -1) {
		out.WriteString(text[last:m[0]])
		last = m[1]

		optional := text[m[2]:m[3]] == "?"
		target := strings.TrimSpace(text[m[4]:m[5]])

		doc, matches, ok := st.Corpus.Resolve(target)
		if !ok {
			if len(matches) > 1 {
				return "", &AmbiguousTargetError{Doc: st.DocKey, Target: target, Matches: matches, Offset: m[0]}
			}
			if optional {
				logging.TemplateDebug("%s: optional include %s absent, resolved to empty", st.DocKey, target)
				continue
			}
			return "", &IncludeNotFoundError{Doc: st.DocKey, Target: target, Offset: m[0]}
		}

		for _, seen := range chain {
			if seen == doc.Key {
				return "", &IncludeCycleError{Chain: append(append([]string(nil), chain...), doc.Key)}
			}
		}

		resolved, err := resolveIncludes(doc.Content, st, append(chain, doc.Key))
		if err != nil {
			return "", err
		}
		out.WriteString(strings.TrimSuffix(resolved, "\n"))
	}
	out.WriteString(text[last:])

	return out.String(), nil
}
