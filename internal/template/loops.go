package template

import (
	"fmt"
	"regexp"
	"strings"

	"layerweave/internal/config"
)

// loopStage expands {{for:var in list.path}} ... {{endfor}} blocks once
// per element of the named list from the context, substituting
// per-iteration variables ({{var}}, {{var.key}}) inside the block body
// only. A missing or non-list path is non-fatal: the block expands to
// nothing and the path is recorded as missing.
type loopStage struct{}

func (loopStage) Name() string { return "loops" }

func (loopStage) Transform(text string, st *State) (string, error) {
	for {
		end := strings.Index(text, endforToken)
		if end < 0 {
			return text, nil
		}
		open := strings.LastIndex(text[:end], forOpenToken)
		if open < 0 {
			return text, nil
		}

		headEnd := strings.Index(text[open:end], "}}")
		if headEnd < 0 {
			return text, nil
		}
		headEnd += open
		head := text[open+len(forOpenToken) : headEnd]
		body := trimBlockEdges(text[headEnd+2 : end])

		varName, listPath, ok := parseLoopHead(head)
		repl := ""
		if !ok {
			st.Report.RecordWarning(fmt.Sprintf("%s: malformed loop header %q", st.DocKey, head))
		} else if list, found := st.Ctx.LookupList(listPath); !found {
			st.Report.RecordVariable(listPath, false)
		} else {
			iterations := make([]string, 0, len(list))
			for _, elem := range list {
				iterations = append(iterations, expandIteration(body, varName, elem))
			}
			repl = strings.Join(iterations, "\n")
		}

		prefix, rest := text[:open], text[end+len(endforToken):]
		if repl == "" && strings.HasSuffix(prefix, "\n") && strings.HasPrefix(rest, "\n") {
			rest = rest[1:]
		}
		text = prefix + repl + rest
	}
}

// parseLoopHead splits "var in list.path".
func parseLoopHead(head string) (varName, listPath string, ok bool) {
	fields := strings.Fields(head)
	if len(fields) != 3 || fields[1] != "in" {
		return "", "", false
	}
	return fields[0], fields[2], true
}

// expandIteration substitutes {{var}} and {{var.key.path}} in one copy of
// the loop body. Substituted values are data, so their delimiters are
// masked against later stages.
func expandIteration(body, varName string, elem interface{}) string {
	re := regexp.MustCompile(`\{\{` + regexp.QuoteMeta(varName) + `(\.[A-Za-z0-9._-]+)?\}\}`)
	return re.ReplaceAllStringFunc(body, func(match string) string {
		sub := re.FindStringSubmatch(match)
		if sub[1] == "" {
			return maskLiteral(config.RenderScalar(elem))
		}
		v, ok := lookupElem(elem, strings.TrimPrefix(sub[1], "."))
		if !ok {
			return match
		}
		return maskLiteral(config.RenderScalar(v))
	})
}

func lookupElem(elem interface{}, path string) (interface{}, bool) {
	cur := elem
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
