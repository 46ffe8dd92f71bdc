// Package corpus loads the documentation tree into an immutable
// in-memory document store with a keyword inverted index.
package corpus

import (
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Corpus is the read-only collection of successfully loaded documents.
// It is rebuilt from disk on each full scan and never mutated afterwards.
type Corpus struct {
	docs    map[string]*models.Document
	ids     []string // sorted
	keyword map[string][]string
}

// New builds a Corpus from parsed documents. Duplicate IDs are a
// programmer error (IDs are relative paths) and panic.
func New(docs []*models.Document) *Corpus {
	c := &Corpus{
		docs:    make(map[string]*models.Document, len(docs)),
		keyword: make(map[string][]string),
	}
	for _, d := range docs {
		if _, dup := c.docs[d.ID]; dup {
			panic("corpus: duplicate doc id " + d.ID)
		}
		c.docs[d.ID] = d
		c.ids = append(c.ids, d.ID)
		for _, kw := range d.Keywords {
			term := strings.ToLower(strings.TrimSpace(kw))
			if term == "" {
				continue
			}
			c.keyword[term] = append(c.keyword[term], d.ID)
		}
	}
	sort.Strings(c.ids)
	return c
}

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.docs) }

// Get returns the document for id, or nil.
func (c *Corpus) Get(id string) *models.Document { return c.docs[id] }

// Has reports membership.
func (c *Corpus) Has(id string) bool { _, ok := c.docs[id]; return ok }

// IDs returns document IDs in sorted order. Callers must not mutate.
func (c *Corpus) IDs() []string { return c.ids }

// Docs returns all documents in ID order.
func (c *Corpus) Docs() []*models.Document {
	out := make([]*models.Document, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.docs[id])
	}
	return out
}

// ByKeyword returns the IDs of documents declaring the given keyword
// (case-folded exact match), or nil.
func (c *Corpus) ByKeyword(term string) []string {
	return c.keyword[strings.ToLower(term)]
}

// FilenameMap maps base filenames to canonical doc IDs. When two
// documents share a filename the lexically first ID wins, which keeps
// healing deterministic.
func (c *Corpus) FilenameMap() map[string]string {
	out := make(map[string]string, len(c.ids))
	for _, id := range c.ids {
		name := id
		if i := strings.LastIndex(id, "/"); i >= 0 {
			name = id[i+1:]
		}
		if _, ok := out[name]; !ok {
			out[name] = id
		}
	}
	return out
}
