package compose

import (
	"context"
	"path"
	"runtime"

	"golang.org/x/sync/errgroup"

	"layerweave/internal/config"
	"layerweave/internal/layer"
	"layerweave/internal/logging"
	"layerweave/internal/report"
	"layerweave/internal/template"
)

// Runner drives one full composition run: Phase 1 (layer merge) over every
// entity, a hard barrier, then Phase 2 (directive resolution) over the
// whole corpus. The barrier is not an ordering hint: section extraction
// and includes may reference any document in the corpus, including ones
// composed by a different worker, so Phase 2 must not start until Phase 1
// has completed for every entity.
type Runner struct {
	cfg    *config.Config
	ctx    *config.Context
	writer FileWriter
	jobs   int
}

// NewRunner builds a runner for one project. Each call to Run is a fresh,
// all-or-nothing batch; the runner holds no state across runs.
func NewRunner(cfg *config.Config, ctx *config.Context, writer FileWriter) *Runner {
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return &Runner{cfg: cfg, ctx: ctx, writer: writer, jobs: jobs}
}

// Run executes both phases and returns the run report. The returned error
// is non-nil only for fail-fast aborts; non-fatal problems live in the
// report. On abort, callers should treat the output directory as
// provisional and discard it.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	rep := report.New()

	discovery := layer.NewDiscovery(r.ctx.ProjectRoot, r.ctx.ActivePacks)
	composer := NewComposer(discovery, r.writer, r.jobs)

	// Phase 1: layer merge, per-entity parallel.
	entities, err := composer.ComposeAll(ctx, r.ctx, r.cfg.Categories, rep)
	if err != nil {
		return rep, err
	}

	// Barrier: every entity is composed and written before any Phase 2
	// read of the corpus.
	corpus := template.NewCorpus()
	for _, key := range SortedKeys(entities) {
		e := entities[key]
		layers := make([]string, len(e.ContributingLayers))
		for i, p := range e.ContributingLayers {
			layers[i] = p.String()
		}
		corpus.Add(key, e.MergedContent, layers)
	}

	// Phase 2: directive resolution, per-document parallel over the
	// read-only corpus.
	engine := template.NewEngine(corpus, r.ctx, rep)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)

	for _, key := range SortedKeys(entities) {
		key := key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			resolved, err := engine.Process(key)
			if err != nil {
				rep.RecordError(err.Error())
				return err
			}

			outPath := path.Join(r.ctx.OutputDir, key)
			if err := r.writer.WriteFile(outPath, []byte(resolved)); err != nil {
				rep.RecordError(err.Error())
				return err
			}
			rep.RecordFile(outPath)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rep, err
	}

	logging.Compose("Phase 2 complete: %d documents resolved", len(entities))
	return rep, nil
}
