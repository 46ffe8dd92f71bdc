package healer

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/testutil"
)

func fixedClock() time.Time {
	return time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
}

func TestHealFile_SynthesizesMissingFrontMatter(t *testing.T) {
	_, store := testutil.DocsRoot(t, map[string]string{
		"guides/cache-eviction_policy.md": "Eviction uses an LRU clock.\n",
	})
	h := New(store, nil, []string{"cache", "docs"}, nil).WithClock(fixedClock)

	res, err := h.HealFile("guides/cache-eviction_policy.md")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeRepaired {
		t.Fatalf("outcome = %q (%s)", res.Outcome, res.Reason)
	}

	data, err := store.Read("guides/cache-eviction_policy.md")
	if err != nil {
		t.Fatal(err)
	}
	fm, body, err := frontmatter.Parse(data)
	if err != nil {
		t.Fatalf("healed file does not parse: %v", err)
	}
	if got := fm["title"].AsString(); got != "Cache Eviction Policy" {
		t.Errorf("title = %q", got)
	}
	if got := fm["consciousness_score"].AsString(); got != "1.0" {
		t.Errorf("consciousness_score = %q", got)
	}
	if got := fm["validation_status"].AsString(); got != "draft" {
		t.Errorf("validation_status = %q", got)
	}
	if got := fm["version"].AsString(); got != "v1.0.0" {
		t.Errorf("version = %q", got)
	}
	if got := fm["last_updated"].AsString(); got != "2025-08-15 12:00:00" {
		t.Errorf("last_updated = %q", got)
	}
	if !strings.Contains(body, "LRU clock") {
		t.Errorf("body lost: %q", body)
	}
}

func TestHealFile_TemplatesExempt(t *testing.T) {
	_, store := testutil.DocsRoot(t, map[string]string{
		"meta/doc-template.md": "Fill in the blanks.\n",
	})
	h := New(store, nil, nil, nil)

	res, err := h.HealFile("meta/doc-template.md")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeSkipped {
		t.Fatalf("outcome = %q, want skipped", res.Outcome)
	}
	data, _ := store.Read("meta/doc-template.md")
	if string(data) != "Fill in the blanks.\n" {
		t.Errorf("exempt file was modified: %q", data)
	}
}

func TestHealFile_QuotesUnsafeScalars(t *testing.T) {
	_, store := testutil.DocsRoot(t, map[string]string{
		"design.md": "---\ntitle: API: v2 design\nconsciousness_score: 2.4\n---\nBody text.\n",
	})
	h := New(store, nil, nil, nil)

	res, err := h.HealFile("design.md")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeRepaired {
		t.Fatalf("outcome = %q (%s)", res.Outcome, res.Reason)
	}

	data, _ := store.Read("design.md")
	fm, body, err := frontmatter.Parse(data)
	if err != nil {
		t.Fatalf("healed file does not parse: %v", err)
	}
	if got := fm["title"].AsString(); got != "API: v2 design" {
		t.Errorf("title = %q", got)
	}
	if got := fm["consciousness_score"].AsString(); got != "2.4" {
		t.Errorf("consciousness_score = %q", got)
	}
	if body != "Body text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestHealAll_RewritesRenamedCrossReferences(t *testing.T) {
	_, store := testutil.DocsRoot(t, map[string]string{
		"a/source.md": "---\ntitle: Source\ncross_references:\n  - old/target.md\n  - gone/nowhere.md\n---\nx\n",
		"b/target.md": "---\ntitle: Target\n---\nx\n",
	})
	h := New(store, nil, nil, nil)

	results, err := h.HealAll()
	if err != nil {
		t.Fatal(err)
	}
	var src Result
	for _, r := range results {
		if r.Path == "a/source.md" {
			src = r
		}
	}
	if src.Outcome != OutcomeRepaired {
		t.Fatalf("source outcome = %q (%s)", src.Outcome, src.Reason)
	}

	data, _ := store.Read("a/source.md")
	fm, _, err := frontmatter.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	refs := fm["cross_references"].AsList()
	if len(refs) != 2 || refs[0] != "b/target.md" {
		t.Errorf("refs = %v", refs)
	}
	if refs[1] != "gone/nowhere.md" {
		t.Errorf("dangling ref dropped: %v", refs)
	}
}

func TestHealAll_Idempotent(t *testing.T) {
	_, store := testutil.DocsRoot(t, map[string]string{
		"bare.md":   "just a body\n",
		"quote.md":  "---\ntitle: Plan: phase two\n---\nx\n",
		"xref.md":   "---\ntitle: Xref\ncross_references:\n  - elsewhere/quote.md\n---\nx\n",
		"intact.md": "---\ntitle: Fine\n---\nx\n",
	})
	h := New(store, nil, nil, nil).WithClock(fixedClock)

	if _, err := h.HealAll(); err != nil {
		t.Fatal(err)
	}
	second, err := h.HealAll()
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range second {
		if r.Outcome == OutcomeRepaired {
			t.Errorf("second run repaired %s (%s)", r.Path, r.Reason)
		}
	}
}

func TestQuoteUnsafeScalars(t *testing.T) {
	in := "\ntitle: Notes & caveats\nversion: v1.0.0\nscore: 1.0\nlist: [a, b]\nquoted: \"#ok\""
	out := QuoteUnsafeScalars(in)
	if !strings.Contains(out, `title: "Notes & caveats"`) {
		t.Errorf("ampersand not quoted:\n%s", out)
	}
	if !strings.Contains(out, `score: "1.0"`) {
		t.Errorf("decimal not quoted:\n%s", out)
	}
	if !strings.Contains(out, "version: v1.0.0\n") {
		t.Errorf("safe scalar altered:\n%s", out)
	}
	if !strings.Contains(out, "list: [a, b]") {
		t.Errorf("flow list altered:\n%s", out)
	}
	if !strings.Contains(out, `quoted: "#ok"`) {
		t.Errorf("quoted value altered:\n%s", out)
	}
}
