package layer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"layerweave/internal/logging"
)

// documentGlob matches the documents a category directory contributes.
const documentGlob = "**/*.md"

// Discovery enumerates layer sources for a project root. Its cache is
// scoped to the run that owns it; a new Discovery is built per run so the
// engine stays re-invocable.
type Discovery struct {
	root        string
	activePacks []string

	// cache holds per-category results for repeated Discover calls
	// within one run.
	cache map[string][]*Group
}

// NewDiscovery creates a discovery rooted at the given project directory.
// activePacks must already be deduplicated (config loading does this).
func NewDiscovery(root string, activePacks []string) *Discovery {
	return &Discovery{
		root:        root,
		activePacks: activePacks,
		cache:       make(map[string][]*Group),
	}
}

// Discover returns one group per distinct entity id found in the given
// category across all layers. Ordering guarantees: groups are sorted by
// entity id; within a group, core comes first, then packs in activation
// order, then project. This ordering is the override-precedence order and
// is never inferred from filesystem iteration order.
func (d *Discovery) Discover(category string) ([]*Group, error) {
	if cached, ok := d.cache[category]; ok {
		return cached, nil
	}

	timer := logging.StartTimer(logging.CategoryDiscovery, "Discover "+category)
	defer timer.Stop()

	byEntity := make(map[string][]*Source)

	collect := func(dir string, l Layer, pack string) error {
		sources, err := d.scanDir(dir, l, pack)
		if err != nil {
			return err
		}
		for _, s := range sources {
			byEntity[s.EntityID] = append(byEntity[s.EntityID], s)
		}
		return nil
	}

	// Precedence order: core, packs in activation order, project.
	if err := collect(filepath.Join(d.root, "core", category), LayerCore, ""); err != nil {
		return nil, err
	}
	for _, pack := range d.activePacks {
		dir := filepath.Join(d.root, "packs", pack, category)
		if err := collect(dir, LayerPack, pack); err != nil {
			return nil, err
		}
	}
	if err := collect(filepath.Join(d.root, "project", category), LayerProject, ""); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(byEntity))
	for id := range byEntity {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]*Group, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, &Group{EntityID: id, Sources: byEntity[id]})
	}

	logging.Discovery("category %s: %d entities across %d layers",
		category, len(groups), 2+len(d.activePacks))

	d.cache[category] = groups
	return groups, nil
}

// scanDir globs one layer directory for documents. A missing directory is
// not an error; an entity may be introduced entirely by another layer.
func (d *Discovery) scanDir(dir string, l Layer, pack string) ([]*Source, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(dir, documentGlob))
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", dir, err)
	}
	sort.Strings(matches)

	var sources []*Source
	for _, path := range matches {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, fmt.Errorf("failed to relativize %s: %w", path, err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read layer source %s: %w", path, err)
		}

		sources = append(sources, &Source{
			Layer:      l,
			PackName:   pack,
			EntityID:   filepath.ToSlash(rel),
			Path:       path,
			RawContent: string(data),
		})
		logging.DiscoveryDebug("found %s source for %s at %s", l, filepath.ToSlash(rel), path)
	}

	return sources, nil
}
