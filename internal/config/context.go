package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Context is the immutable input to a single composition run. It is owned
// by the run and passed by pointer into every component that needs it; no
// component retains it beyond the run's lifetime.
type Context struct {
	// ActivePacks lists active pack identifiers in precedence order
	// (earlier = lower precedence).
	ActivePacks []string

	// Values is the nested key-value structure from layerweave.yaml,
	// reachable via dotted-path lookup.
	Values map[string]interface{}

	// ProjectRoot is the absolute project root directory.
	ProjectRoot string

	// OutputDir is the absolute output directory.
	OutputDir string

	// RunTimestamp is fixed at run start so every document in one run
	// sees the same value.
	RunTimestamp time.Time

	// ToolVersion is the layerweave version string.
	ToolVersion string

	// LookupEnv resolves environment flags for conditionals. Defaults to
	// os.LookupEnv; tests inject their own.
	LookupEnv func(string) (string, bool)
}

// NewContext builds a run context from a loaded config.
func NewContext(cfg *Config, root, version string) *Context {
	output := cfg.Output
	if !filepath.IsAbs(output) {
		output = filepath.Join(root, output)
	}
	return &Context{
		ActivePacks:  cfg.Packs,
		Values:       cfg.Values,
		ProjectRoot:  root,
		OutputDir:    output,
		RunTimestamp: time.Now().UTC(),
		ToolVersion:  version,
		LookupEnv:    os.LookupEnv,
	}
}

// PackActive reports whether the named pack is active.
func (c *Context) PackActive(name string) bool {
	for _, p := range c.ActivePacks {
		if p == name {
			return true
		}
	}
	return false
}

// Lookup resolves a dotted path (e.g. "team.review.required") against the
// nested Values mapping. The second return is false when any path element
// is absent or a non-map is traversed.
func (c *Context) Lookup(path string) (interface{}, bool) {
	if c.Values == nil || path == "" {
		return nil, false
	}

	cur := interface{}(c.Values)
	for _, part := range strings.Split(path, ".") {
		m, ok := asStringMap(cur)
		if !ok {
			return nil, false
		}
		next, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// LookupString resolves a dotted path and renders the value as a string.
func (c *Context) LookupString(path string) (string, bool) {
	v, ok := c.Lookup(path)
	if !ok {
		return "", false
	}
	return RenderScalar(v), true
}

// LookupList resolves a dotted path to a list of elements for loop
// expansion. Scalars are not promoted; a non-list value returns false.
func (c *Context) LookupList(path string) ([]interface{}, bool) {
	v, ok := c.Lookup(path)
	if !ok {
		return nil, false
	}
	list, ok := v.([]interface{})
	return list, ok
}

// Truthy reports whether a config value counts as true for conditionals:
// false for nil, false, zero numbers, "" / "false" / "0", and empty
// lists/maps; true otherwise.
func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "false" && s != "0"
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}

// RenderScalar renders a config value the way it should appear in composed
// output. Lists render comma-separated; maps are not meaningfully
// renderable and fall back to fmt.
func RenderScalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = RenderScalar(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// asStringMap normalizes the two map shapes yaml.v3 can produce.
func asStringMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}
