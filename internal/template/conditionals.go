package template

import (
	"strings"
)

const (
	ifOpenToken  = "{{if:"
	elseToken    = "{{else}}"
	endifToken   = "{{endif}}"
	forOpenToken = "{{for:"
	endforToken  = "{{endfor}}"
)

// conditionalStage evaluates {{if:EXPR}} ... {{else}} ... {{endif}}
// blocks, keeping or dropping the enclosed content. Blocks may nest;
// resolution is innermost-first: the first {{endif}} is paired with the
// last {{if:}} before it.
type conditionalStage struct{}

func (conditionalStage) Name() string { return "conditionals" }

func (conditionalStage) Transform(text string, st *State) (string, error) {
	for {
		end := strings.Index(text, endifToken)
		if end < 0 {
			return text, nil
		}
		open := strings.LastIndex(text[:end], ifOpenToken)
		if open < 0 {
			// Dangling endif; leave it for validation to flag.
			return text, nil
		}

		exprEnd := strings.Index(text[open:end], "}}")
		if exprEnd < 0 {
			return text, nil
		}
		exprEnd += open
		expr := text[open+len(ifOpenToken) : exprEnd]

		body := text[exprEnd+2 : end]

		keep, err := evalExpr(st.DocKey, expr, open, st.Ctx)
		if err != nil {
			return "", err
		}

		thenBranch, elseBranch := body, ""
		if idx := strings.Index(body, elseToken); idx >= 0 {
			thenBranch = body[:idx]
			elseBranch = body[idx+len(elseToken):]
		}

		branch := elseBranch
		if keep {
			branch = thenBranch
		}

		prefix, rest := text[:open], text[end+len(endifToken):]
		repl := trimBlockEdges(branch)
		if repl == "" && strings.HasSuffix(prefix, "\n") && strings.HasPrefix(rest, "\n") {
			rest = rest[1:]
		}
		text = prefix + repl + rest
	}
}
