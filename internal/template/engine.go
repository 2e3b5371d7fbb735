package template

import (
	"fmt"

	"layerweave/internal/config"
	"layerweave/internal/logging"
	"layerweave/internal/report"
)

// Engine runs the nine-stage transformation pipeline over composed
// documents. Stage order is fixed and load-bearing: later stages must see
// the output of earlier ones, and the cross-document stages (includes,
// section extraction) read the Phase 1 corpus, so the engine must only be
// built after Phase 1 has fully completed.
type Engine struct {
	corpus *Corpus
	ctx    *config.Context
	report *report.Report
	stages []Stage
}

// NewEngine creates an engine over a completed Phase 1 corpus.
func NewEngine(corpus *Corpus, ctx *config.Context, rep *report.Report) *Engine {
	return &Engine{
		corpus: corpus,
		ctx:    ctx,
		report: rep,
		stages: []Stage{
			includeStage{},
			sectionStage{},
			conditionalStage{},
			loopStage{},
			configVarStage{},
			contextVarStage{},
			pathVarStage{},
			referenceStage{},
			validateStage{},
		},
	}
}

// StageNames returns the pipeline's stage names in execution order.
func (e *Engine) StageNames() []string {
	names := make([]string, len(e.stages))
	for i, s := range e.stages {
		names[i] = s.Name()
	}
	return names
}

// Process resolves one document against the composed corpus. Errors from
// the fail-fast stages abort the run; graceful stages accumulate problems
// in the report instead. The returned text has all masked delimiters
// restored to literal braces.
func (e *Engine) Process(docKey string) (string, error) {
	doc, ok := e.corpus.Get(docKey)
	if !ok {
		return "", fmt.Errorf("document %q not in composed corpus", docKey)
	}

	timer := logging.StartTimer(logging.CategoryTemplate, "Process "+docKey)
	defer timer.Stop()

	st := &State{
		DocKey: docKey,
		Corpus: e.corpus,
		Ctx:    e.ctx,
		Report: e.report,
	}

	text := doc.Content
	for _, stage := range e.stages {
		var err error
		text, err = stage.Transform(text, st)
		if err != nil {
			logging.Get(logging.CategoryTemplate).Error("%s failed at stage %s: %v", docKey, stage.Name(), err)
			return "", err
		}
		logging.TemplateDebug("%s: stage %s done (%d bytes)", docKey, stage.Name(), len(text))
	}

	return unmaskLiteral(text), nil
}
