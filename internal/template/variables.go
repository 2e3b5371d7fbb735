package template

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	configVarRe  = regexp.MustCompile(`\{\{config:([A-Za-z0-9._-]+)\}\}`)
	contextVarRe = regexp.MustCompile(`\{\{ctx:([a-z_]+)\}\}`)
	pathVarRe    = regexp.MustCompile(`\{\{path:([a-z_]+)\}\}`)
)

// configVarStage substitutes {{config:dotted.path}} placeholders from the
// run's config values. A missing path is not fatal: the placeholder stays
// in place for validation to flag and the key lands in variables_missing.
type configVarStage struct{}

func (configVarStage) Name() string { return "config-variables" }

func (configVarStage) Transform(text string, st *State) (string, error) {
	out := configVarRe.ReplaceAllStringFunc(text, func(match string) string {
		key := configVarRe.FindStringSubmatch(match)[1]
		val, ok := st.Ctx.LookupString(key)
		st.Report.RecordVariable(key, ok)
		if !ok {
			return match
		}
		return maskLiteral(val)
	})
	return out, nil
}

// contextVarStage substitutes the small fixed set of run-scoped values:
// timestamp, version, packs and the composed-layer summary of the current
// document.
type contextVarStage struct{}

func (contextVarStage) Name() string { return "context-variables" }

func (contextVarStage) Transform(text string, st *State) (string, error) {
	out := contextVarRe.ReplaceAllStringFunc(text, func(match string) string {
		name := contextVarRe.FindStringSubmatch(match)[1]

		var val string
		switch name {
		case "timestamp":
			val = st.Ctx.RunTimestamp.Format(time.RFC3339)
		case "version":
			val = st.Ctx.ToolVersion
		case "packs":
			val = strings.Join(st.Ctx.ActivePacks, ", ")
		case "layers":
			if doc, ok := st.Corpus.Get(st.DocKey); ok {
				val = strings.Join(doc.Layers, ", ")
			}
		default:
			st.Report.RecordVariable("ctx:"+name, false)
			return match
		}

		st.Report.RecordVariable("ctx:"+name, true)
		return maskLiteral(val)
	})
	return out, nil
}

// pathVarStage resolves the fixed set of filesystem-location placeholders
// relative to the project root.
type pathVarStage struct{}

func (pathVarStage) Name() string { return "path-variables" }

func (pathVarStage) Transform(text string, st *State) (string, error) {
	out := pathVarRe.ReplaceAllStringFunc(text, func(match string) string {
		name := pathVarRe.FindStringSubmatch(match)[1]

		var val string
		switch name {
		case "root":
			val = st.Ctx.ProjectRoot
		case "output":
			val = st.Ctx.OutputDir
		case "core":
			val = filepath.Join(st.Ctx.ProjectRoot, "core")
		case "packs":
			val = filepath.Join(st.Ctx.ProjectRoot, "packs")
		case "project":
			val = filepath.Join(st.Ctx.ProjectRoot, "project")
		default:
			st.Report.RecordVariable("path:"+name, false)
			return match
		}

		st.Report.RecordVariable("path:"+name, true)
		return maskLiteral(val)
	})
	return out, nil
}

// referenceStage replaces {{ref:doc#section|purpose}} with a short
// human-readable pointer line (path, section, purpose) and never with the
// section's actual content. References are advisory: a missing target is
// a warning, not an error, and the pointer is emitted regardless.
type referenceStage struct{}

var referenceRe = regexp.MustCompile(`\{\{ref:([^{}#|]+)#([^{}|]+)\|([^{}]*)\}\}`)

func (referenceStage) Name() string { return "references" }

func (referenceStage) Transform(text string, st *State) (string, error) {
	out := referenceRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := referenceRe.FindStringSubmatch(match)
		target := strings.TrimSpace(sub[1])
		name := strings.TrimSpace(sub[2])
		purpose := strings.TrimSpace(sub[3])

		key := target
		doc, _, ok := st.Corpus.Resolve(target)
		if ok {
			key = doc.Key
			if _, found := st.Corpus.SectionBody(doc, name); !found {
				ok = false
			}
		}
		if !ok {
			st.Report.RecordWarning(fmt.Sprintf("%s: reference target %s#%s not found", st.DocKey, target, name))
		}

		if purpose == "" {
			return fmt.Sprintf("See %s#%s", key, name)
		}
		return fmt.Sprintf("See %s#%s (%s)", key, name, purpose)
	})
	return out, nil
}
