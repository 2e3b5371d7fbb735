// Package compose implements Phase 1 of the pipeline: the ordered merge of
// layer sources into one composed document per entity, and the run driver
// that sequences Phase 1 and Phase 2 with a hard barrier between them.
package compose

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"layerweave/internal/config"
	"layerweave/internal/layer"
	"layerweave/internal/logging"
	"layerweave/internal/report"
	"layerweave/internal/section"
)

// Provenance records one layer's contribution to a composed entity.
type Provenance struct {
	Layer layer.Layer
	Pack  string
	Path  string
}

// String renders provenance the way it appears in diagnostics and in the
// {{ctx:layers}} context variable.
func (p Provenance) String() string {
	if p.Layer == layer.LayerPack {
		return "pack:" + p.Pack
	}
	return p.Layer.String()
}

// ComposedEntity is the Phase 1 output for one logical entity. Section
// markers are preserved in MergedContent so Phase 2 can still locate them.
type ComposedEntity struct {
	EntityID           string
	Category           string
	MergedContent      string
	ContributingLayers []Provenance
}

// Key returns the corpus key for this entity (category-relative path).
func (e *ComposedEntity) Key() string {
	return path.Join(e.Category, e.EntityID)
}

// Composer orchestrates the per-entity cross-layer merge.
type Composer struct {
	discovery *layer.Discovery
	writer    FileWriter
	jobs      int
}

// NewComposer creates a composer over the given discovery and writer.
// jobs bounds per-phase parallelism; 0 means GOMAXPROCS.
func NewComposer(discovery *layer.Discovery, writer FileWriter, jobs int) *Composer {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return &Composer{discovery: discovery, writer: writer, jobs: jobs}
}

// ComposeAll merges every entity of every category and writes the
// intermediate documents under outputDir. Entities are independent of each
// other, so they fan out across workers; the report is the only shared
// mutable state.
func (c *Composer) ComposeAll(ctx context.Context, cfg *config.Context, categories []string, rep *report.Report) (map[string]*ComposedEntity, error) {
	timer := logging.StartTimer(logging.CategoryCompose, "ComposeAll")
	defer timer.Stop()

	var (
		mu       sync.Mutex
		entities = make(map[string]*ComposedEntity)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs)

	for _, category := range categories {
		groups, err := c.discovery.Discover(category)
		if err != nil {
			rep.RecordError(err.Error())
			return nil, err
		}

		for _, group := range groups {
			category, group := category, group
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				entity, err := c.composeEntity(category, group)
				if err != nil {
					rep.RecordError(err.Error())
					return err
				}

				outPath := path.Join(cfg.OutputDir, entity.Key())
				if err := c.writer.WriteFile(outPath, []byte(entity.MergedContent)); err != nil {
					rep.RecordError(err.Error())
					return err
				}

				mu.Lock()
				entities[entity.Key()] = entity
				mu.Unlock()

				logging.ComposeDebug("composed %s from %d layers", entity.Key(), len(entity.ContributingLayers))
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.Compose("Phase 1 complete: %d entities composed", len(entities))
	return entities, nil
}

// composeEntity merges one entity's layer chain. Only section content
// propagates across layers: preamble and epilogue prose outside sections
// is preserved from the core layer alone, so packs and project overrides
// cannot silently rewrite the surrounding document.
func (c *Composer) composeEntity(category string, group *layer.Group) (*ComposedEntity, error) {
	var (
		inputs  []section.LayerInput
		coreDoc *section.Document
		prov    []Provenance
	)

	for _, src := range group.Sources {
		doc, err := section.Parse(src.RawContent)
		if err != nil {
			if se, ok := err.(*section.StructuralError); ok {
				se.Doc = src.Path
				return nil, se
			}
			return nil, fmt.Errorf("failed to parse %s: %w", src.Path, err)
		}

		origin := src.Layer.String()
		if src.Layer == layer.LayerPack {
			origin = "pack:" + src.PackName
		}
		inputs = append(inputs, section.LayerInput{Origin: origin, Doc: doc})
		prov = append(prov, Provenance{Layer: src.Layer, Pack: src.PackName, Path: src.Path})

		if src.Layer == layer.LayerCore {
			coreDoc = doc
		}
	}

	merged, err := section.Merge(inputs)
	if err != nil {
		if se, ok := err.(*section.StructuralError); ok {
			se.Doc = path.Join(category, group.EntityID)
		}
		return nil, err
	}

	return &ComposedEntity{
		EntityID:           group.EntityID,
		Category:           category,
		MergedContent:      emit(coreDoc, merged),
		ContributingLayers: prov,
	}, nil
}

// emit renders the merged document: the core layer's node sequence with
// merged section bodies substituted in place, followed by sections whose
// first definition lives in a later layer, in first-encounter order.
func emit(coreDoc *section.Document, merged []*section.Section) string {
	byName := make(map[string]*section.Section, len(merged))
	for _, s := range merged {
		byName[s.Name] = s
	}

	emitted := make(map[string]bool, len(merged))
	var parts []string

	if coreDoc != nil {
		for _, node := range coreDoc.Nodes {
			switch node.Kind {
			case section.NodeText:
				parts = append(parts, node.Text)
			case section.NodeSection, section.NodeExtend:
				name := node.Section.Name
				if emitted[name] {
					continue
				}
				parts = append(parts, section.EmitSection(byName[name]))
				emitted[name] = true
			}
		}
	}

	var appended []string
	for _, s := range merged {
		if !emitted[s.Name] {
			appended = append(appended, section.EmitSection(s))
			emitted[s.Name] = true
		}
	}

	content := strings.Join(parts, "\n")
	if len(appended) > 0 {
		tail := strings.Join(appended, "\n\n")
		if strings.TrimSpace(content) == "" {
			content = tail
		} else {
			content = strings.TrimRight(content, "\n") + "\n\n" + tail
		}
	}

	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content
}

// SortedKeys returns corpus keys in deterministic order; used by the run
// driver and in diagnostics.
func SortedKeys(entities map[string]*ComposedEntity) []string {
	keys := make([]string, 0, len(entities))
	for k := range entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
