// Package healer repairs front-matter off-line: it synthesizes missing
// blocks, quotes unsafe scalars, and rewrites renamed cross-references.
// It never deletes user content; the worst it can do is prepend a
// synthesized block or rewrite a reference path.
package healer

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/storage"
)

// Version is recorded in the persistence manifest; bump on any change to
// the repair rules so stale artifacts trigger a rebuild.
const Version = "1.1.0"

// Outcome of a per-file heal.
const (
	OutcomeUnchanged = "unchanged"
	OutcomeRepaired  = "repaired"
	OutcomeSkipped   = "skipped"
)

// Result describes what happened to one file.
type Result struct {
	Path    string `json:"path"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// unsafeChars are the syntactically significant characters that force
// quoting of a plain scalar.
const unsafeChars = "#@&*^%$~`\\[]{}|><!;?"

// decimalRe matches values like "1.0" or "2.4" that YAML would read as
// numbers while the author meant a string.
var decimalRe = regexp.MustCompile(`^\d+\.\d+$`)

// Healer applies repair strategies through the storage provider so every
// rewrite is an atomic tmp+rename and never visible half-written.
type Healer struct {
	store  storage.Provider
	exempt []string
	// defaults for synthesized blocks
	defaultKeywords []string
	logger          *slog.Logger
	now             func() time.Time
}

// New creates a Healer. exempt holds glob patterns (matched against base
// names) for files allowed to live without front-matter, e.g.
// "*template*". defaultKeywords seed synthesized ai_keywords.
func New(store storage.Provider, exempt, defaultKeywords []string, logger *slog.Logger) *Healer {
	if len(defaultKeywords) == 0 {
		defaultKeywords = []string{"documentation", "reference"}
	}
	return &Healer{
		store:           store,
		exempt:          exempt,
		defaultKeywords: defaultKeywords,
		logger:          logger,
		now:             time.Now,
	}
}

// WithClock overrides the time source; tests use this for stable output.
func (h *Healer) WithClock(now func() time.Time) *Healer {
	h.now = now
	return h
}

// HealAll runs the per-file strategies over every file, then the
// cross-reference pass over the resulting corpus. It is idempotent: a
// second run reports every file unchanged.
func (h *Healer) HealAll() ([]Result, error) {
	infos, err := h.store.List("")
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(infos))
	for _, info := range infos {
		res, err := h.HealFile(info.Path)
		if err != nil {
			results = append(results, Result{Path: info.Path, Outcome: OutcomeSkipped, Reason: err.Error()})
			continue
		}
		results = append(results, res)
	}

	xrefResults, err := h.healCrossReferences()
	if err != nil {
		return results, err
	}
	// Merge: a cross-reference repair upgrades an unchanged entry.
	byPath := make(map[string]int, len(results))
	for i, r := range results {
		byPath[r.Path] = i
	}
	for _, xr := range xrefResults {
		if i, ok := byPath[xr.Path]; ok && results[i].Outcome == OutcomeUnchanged {
			results[i] = xr
		} else if !ok {
			results = append(results, xr)
		}
	}
	return results, nil
}

// HealFile applies the first two strategies to a single file: missing
// front-matter synthesis, then unsafe-scalar quoting.
func (h *Healer) HealFile(relPath string) (Result, error) {
	data, err := h.store.Read(relPath)
	if err != nil {
		return Result{}, err
	}

	if _, _, err := frontmatter.Parse(data); err == nil {
		return Result{Path: relPath, Outcome: OutcomeUnchanged}, nil
	}

	block, body, ok := frontmatter.Split(data)
	if !ok {
		// Strategy 1: no delimited block at all.
		if h.isExempt(relPath) {
			return Result{Path: relPath, Outcome: OutcomeSkipped, Reason: "exempt from front-matter"}, nil
		}
		return h.synthesize(relPath, string(data))
	}

	// Strategy 2: block present but rejected; quote unsafe scalars.
	fixed := QuoteUnsafeScalars(block)
	if fixed == block {
		return Result{Path: relPath, Outcome: OutcomeSkipped, Reason: "front-matter unrepairable"}, nil
	}
	candidate := []byte("---" + fixed + "\n---\n" + body)
	if _, _, err := frontmatter.Parse(candidate); err != nil {
		return Result{Path: relPath, Outcome: OutcomeSkipped, Reason: "quoting did not yield valid front-matter"}, nil
	}
	if err := h.store.Write(relPath, candidate); err != nil {
		return Result{}, err
	}
	h.log("quoted unsafe scalars", relPath)
	return Result{Path: relPath, Outcome: OutcomeRepaired, Reason: "quoted unsafe scalars"}, nil
}

// synthesize builds a minimal front-matter block from the filename and
// prepends it, then re-parses to confirm validity before writing.
func (h *Healer) synthesize(relPath, body string) (Result, error) {
	base := strings.TrimSuffix(path.Base(relPath), ".md")
	title := humanize(base)
	now := h.now().Format("2006-01-02 15:04:05")

	fm := frontmatter.FrontMatter{
		"title":               frontmatter.String(title),
		"ai_keywords":         frontmatter.String(strings.Join(h.defaultKeywords, ", ")),
		"ai_summary":          frontmatter.String(title),
		"biological_system":   frontmatter.String("general"),
		"consciousness_score": frontmatter.String("1.0"),
		"cross_references":    frontmatter.Strings(),
		"document_type":       frontmatter.String("reference"),
		"evolutionary_phase":  frontmatter.String("unspecified"),
		"last_updated":        frontmatter.String(now),
		"prior_versions":      frontmatter.Strings(),
		"semantic_tags":       frontmatter.Strings(),
		"validation_status":   frontmatter.String("draft"),
		"version":             frontmatter.String("v1.0.0"),
	}
	candidate := frontmatter.Emit(fm, body)
	if _, _, err := frontmatter.Parse(candidate); err != nil {
		return Result{Path: relPath, Outcome: OutcomeSkipped, Reason: "synthesized block failed to parse"}, nil
	}
	if err := h.store.Write(relPath, candidate); err != nil {
		return Result{}, err
	}
	h.log("synthesized front-matter", relPath)
	return Result{Path: relPath, Outcome: OutcomeRepaired, Reason: "synthesized front-matter"}, nil
}

// healCrossReferences rewrites references whose filename exists in the
// corpus under a different relative path. References that resolve to no
// document are reported but kept: removal is a human decision.
func (h *Healer) healCrossReferences() ([]Result, error) {
	c, _, err := corpus.Load(h.store)
	if err != nil {
		return nil, err
	}
	canonical := c.FilenameMap()

	var results []Result
	for _, doc := range c.Docs() {
		data, err := h.store.Read(doc.ID)
		if err != nil {
			continue
		}
		fm, body, err := frontmatter.Parse(data)
		if err != nil {
			continue
		}
		refs := fm["cross_references"].AsList()
		if len(refs) == 0 {
			continue
		}

		changed := false
		var dangling []string
		fixed := make([]string, len(refs))
		for i, ref := range refs {
			name := path.Base(ref)
			target, known := canonical[name]
			switch {
			case known && ref != target:
				fixed[i] = target
				changed = true
			case known:
				fixed[i] = ref
			default:
				fixed[i] = ref
				dangling = append(dangling, ref)
			}
		}

		switch {
		case changed:
			fm["cross_references"] = frontmatter.Strings(fixed...)
			if err := h.store.Write(doc.ID, frontmatter.Emit(fm, body)); err != nil {
				return results, err
			}
			h.log("rewrote cross-references", doc.ID)
			results = append(results, Result{Path: doc.ID, Outcome: OutcomeRepaired, Reason: "rewrote renamed cross-references"})
		case len(dangling) > 0:
			results = append(results, Result{
				Path:    doc.ID,
				Outcome: OutcomeUnchanged,
				Reason:  fmt.Sprintf("dangling cross-references kept: %s", strings.Join(dangling, ", ")),
			})
		}
	}
	return results, nil
}

func (h *Healer) isExempt(relPath string) bool {
	name := strings.ToLower(path.Base(relPath))
	if strings.Contains(name, "template") || strings.Contains(name, "example") {
		return true
	}
	for _, pat := range h.exempt {
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

func (h *Healer) log(msg, p string) {
	if h.logger != nil {
		h.logger.Info("healer: "+msg, slog.String("path", p))
	}
}

// QuoteUnsafeScalars walks the raw block lines and wraps any unquoted
// `key: value` whose value carries syntactically significant characters,
// looks like a bare decimal, or is a title containing a colon.
func QuoteUnsafeScalars(block string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		colon := strings.Index(trimmed, ":")
		if colon <= 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:colon])
		value := strings.TrimSpace(trimmed[colon+1:])
		if value == "" || isQuoted(value) || strings.HasPrefix(value, "[") {
			continue
		}
		if !needsQuoting(key, value) {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		lines[i] = fmt.Sprintf(`%s%s: "%s"`, indent, key, strings.ReplaceAll(value, `"`, `\"`))
	}
	return strings.Join(lines, "\n")
}

func needsQuoting(key, value string) bool {
	if strings.ContainsAny(value, unsafeChars) {
		return true
	}
	if decimalRe.MatchString(value) {
		return true
	}
	if key == "title" && strings.Contains(value, ":") {
		return true
	}
	return false
}

func isQuoted(v string) bool {
	return (strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) && len(v) > 1) ||
		(strings.HasPrefix(v, `'`) && strings.HasSuffix(v, `'`) && len(v) > 1)
}

// humanize turns "cache-eviction_policy" into "Cache Eviction Policy".
func humanize(stem string) string {
	repl := strings.NewReplacer("-", " ", "_", " ")
	words := strings.Fields(repl.Replace(stem))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
