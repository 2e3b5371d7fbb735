// Package layer enumerates candidate source documents across the three
// override layers (core, packs, project) and returns them in deterministic
// precedence order.
package layer

// Layer identifies one of the three fixed precedence tiers.
type Layer int

const (
	LayerCore Layer = iota
	LayerPack
	LayerProject
)

// String returns the layer's directory name.
func (l Layer) String() string {
	switch l {
	case LayerCore:
		return "core"
	case LayerPack:
		return "pack"
	case LayerProject:
		return "project"
	default:
		return "unknown"
	}
}

// Source is one candidate document contributing to a composed entity.
// Sources are read-only: created fresh each run, never mutated, discarded
// after the merge.
type Source struct {
	Layer      Layer
	PackName   string // set only for LayerPack
	EntityID   string // path relative to the category directory
	Path       string // absolute origin location
	RawContent string
}

// Group is the ordered set of sources contributing to one entity:
// zero-or-one core source, zero-or-many pack sources in activation order,
// zero-or-one project source.
type Group struct {
	EntityID string
	Sources  []*Source
}

// Core returns the group's core source, or nil.
func (g *Group) Core() *Source {
	for _, s := range g.Sources {
		if s.Layer == LayerCore {
			return s
		}
	}
	return nil
}
