package corpus_test

import (
	"testing"
	"time"

	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/testutil"
)

func TestLoad_BuildsDocuments(t *testing.T) {
	_, store := testutil.DocsRoot(t, map[string]string{
		"4.x-transport/wal.md": "---\n" +
			"title: Write-ahead log\n" +
			"ai_keywords: \"wal, durability, log, storage\"\n" +
			"ai_summary: Append-only durability layer\n" +
			"biological_system: storage-engine\n" +
			"evolutionary_phase: \"4.2\"\n" +
			"consciousness_score: \"1.5\"\n" +
			"last_updated: \"2025-08-01 10:00:00 CET\"\n" +
			"cross_references:\n  - 4.x-transport/segments.md\n" +
			"---\nThe log is append-only.\n",
		"4.x-transport/segments.md": "---\ntitle: Segments\nai_keywords: \"segments, storage\"\n---\nSegment files.\n",
	})

	c, violations, err := corpus.Load(store)
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 0 {
		t.Fatalf("violations = %+v", violations)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}

	doc := c.Get("4.x-transport/wal.md")
	if doc == nil {
		t.Fatal("wal.md not loaded")
	}
	if doc.Title != "Write-ahead log" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.Phase != 4 {
		t.Errorf("phase = %d, want 4", doc.Phase)
	}
	if doc.BiologicalSystem != "storage-engine" {
		t.Errorf("system = %q", doc.BiologicalSystem)
	}
	if len(doc.Keywords) != 4 {
		t.Errorf("keywords = %v", doc.Keywords)
	}
	want := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	if !doc.LastUpdated.Equal(want) {
		t.Errorf("last_updated = %v, want %v", doc.LastUpdated, want)
	}
	if doc.ConsciousnessScore != 1.5 {
		t.Errorf("consciousness score = %v", doc.ConsciousnessScore)
	}
	if len(doc.RequiredPresent) != 5 {
		t.Errorf("required present = %v", doc.RequiredPresent)
	}
}

func TestLoad_ExcludesMalformed(t *testing.T) {
	_, store := testutil.DocsRoot(t, map[string]string{
		"good.md":   "---\ntitle: Good\nai_keywords: a, b\n---\nok\n",
		"broken.md": "---\ntitle: API: v2 design\n---\nbody\n",
		"bare.md":   "no front matter at all\n",
	})

	c, violations, err := corpus.Load(store)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 || !c.Has("good.md") {
		t.Fatalf("corpus = %v", c.IDs())
	}
	if len(violations) != 2 {
		t.Fatalf("violations = %+v", violations)
	}
	for _, v := range violations {
		if v.Kind != "malformed_front_matter" {
			t.Errorf("violation kind = %q", v.Kind)
		}
	}
}

func TestLoad_DeterministicOrder(t *testing.T) {
	_, store := testutil.DocsRoot(t, map[string]string{
		"b/two.md":   "---\ntitle: Two\n---\nx\n",
		"a/one.md":   "---\ntitle: One\n---\nx\n",
		"c/three.md": "---\ntitle: Three\n---\nx\n",
	})
	c, _, err := corpus.Load(store)
	if err != nil {
		t.Fatal(err)
	}
	ids := c.IDs()
	want := []string{"a/one.md", "b/two.md", "c/three.md"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestParsePhase(t *testing.T) {
	cases := map[string]int{
		"12.3":        12,
		"4":           4,
		"0.6":         0,
		"Ω5":          models.PhaseUnknown,
		"unspecified": models.PhaseUnknown,
		"":            models.PhaseUnknown,
	}
	for in, want := range cases {
		if got := corpus.ParsePhase(in); got != want {
			t.Errorf("ParsePhase(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestByKeyword_CaseFolded(t *testing.T) {
	c := corpus.New([]*models.Document{
		{ID: "a.md", Keywords: []string{"Cache", "eviction"}},
		{ID: "b.md", Keywords: []string{"cache"}},
	})
	if got := c.ByKeyword("CACHE"); len(got) != 2 {
		t.Errorf("ByKeyword = %v", got)
	}
}

func TestFilenameMap_FirstWins(t *testing.T) {
	c := corpus.New([]*models.Document{
		{ID: "b/readme.md"},
		{ID: "a/readme.md"},
		{ID: "a/other.md"},
	})
	m := c.FilenameMap()
	if m["readme.md"] != "a/readme.md" {
		t.Errorf("readme.md → %q, want a/readme.md", m["readme.md"])
	}
	if m["other.md"] != "a/other.md" {
		t.Errorf("other.md → %q", m["other.md"])
	}
}
