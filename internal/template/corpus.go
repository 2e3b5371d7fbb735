// Package template implements Phase 2 of the pipeline: the nine-stage
// directive resolution over the already-composed corpus. Every stage is a
// Stage value applied in fixed order; stages 1-2 fail fast, stages 3-8
// degrade into the report, stage 9 only reports.
package template

import (
	"path"
	"strings"
	"sync"

	"layerweave/internal/section"
)

// CorpusDoc is one composed document visible to cross-document directives.
type CorpusDoc struct {
	Key     string // category-relative path, e.g. "agents/G.md"
	Content string
	Layers  []string // provenance summary from Phase 1
}

// Corpus is the read-only set of Phase 1 outputs. It is shared across
// Phase 2 workers; the parse cache is the only internally-synchronized
// state.
type Corpus struct {
	docs   map[string]*CorpusDoc
	byBase map[string][]string

	mu     sync.Mutex
	parsed map[string]*section.Document
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		docs:   make(map[string]*CorpusDoc),
		byBase: make(map[string][]string),
		parsed: make(map[string]*section.Document),
	}
}

// Add registers a composed document under its corpus key.
func (c *Corpus) Add(key, content string, layers []string) {
	c.docs[key] = &CorpusDoc{Key: key, Content: content, Layers: layers}
	base := path.Base(key)
	c.byBase[base] = append(c.byBase[base], key)
}

// Keys returns all corpus keys, unordered.
func (c *Corpus) Keys() []string {
	keys := make([]string, 0, len(c.docs))
	for k := range c.docs {
		keys = append(keys, k)
	}
	return keys
}

// Get returns the document under an exact corpus key.
func (c *Corpus) Get(key string) (*CorpusDoc, bool) {
	d, ok := c.docs[key]
	return d, ok
}

// Resolve looks a directive's document reference up: first as an exact
// corpus key, then as a bare basename. A basename matching several
// documents is ambiguous; matches are returned so the caller can build a
// located error.
func (c *Corpus) Resolve(ref string) (doc *CorpusDoc, matches []string, ok bool) {
	ref = strings.TrimSpace(ref)
	if d, found := c.docs[ref]; found {
		return d, nil, true
	}
	keys := c.byBase[path.Base(ref)]
	if len(keys) == 1 {
		return c.docs[keys[0]], nil, true
	}
	return nil, keys, false
}

// SectionBody returns the named section's body in the given document,
// trimmed of leading and trailing blank lines. Parsed documents are
// cached; the corpus is immutable during Phase 2 so the cache never
// invalidates.
func (c *Corpus) SectionBody(doc *CorpusDoc, name string) (string, bool) {
	parsed, err := c.parse(doc)
	if err != nil {
		return "", false
	}
	s := parsed.Section(name)
	if s == nil {
		return "", false
	}
	return strings.Trim(s.Body, "\n"), true
}

func (c *Corpus) parse(doc *CorpusDoc) (*section.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.parsed[doc.Key]; ok {
		return d, nil
	}
	d, err := section.Parse(doc.Content)
	if err != nil {
		return nil, err
	}
	c.parsed[doc.Key] = d
	return d, nil
}
