package template

import (
	"time"

	"layerweave/internal/config"
	"layerweave/internal/report"
)

// testCorpus builds a corpus from key -> content.
func testCorpus(docs map[string]string) *Corpus {
	c := NewCorpus()
	for k, v := range docs {
		c.Add(k, v, []string{"core"})
	}
	return c
}

// testCtx builds a run context with injected environment and values.
func testCtx(values map[string]interface{}, packs ...string) *config.Context {
	return &config.Context{
		ActivePacks:  packs,
		Values:       values,
		ProjectRoot:  "/proj",
		OutputDir:    "/proj/out",
		RunTimestamp: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		ToolVersion:  "test",
		LookupEnv:    func(string) (string, bool) { return "", false },
	}
}

// testState builds a stage state for one document.
func testState(key string, corpus *Corpus, ctx *config.Context) *State {
	if ctx == nil {
		ctx = testCtx(nil)
	}
	return &State{
		DocKey: key,
		Corpus: corpus,
		Ctx:    ctx,
		Report: report.New(),
	}
}
