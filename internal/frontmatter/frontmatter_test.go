package frontmatter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
)

func TestParse_BlockAndBody(t *testing.T) {
	input := []byte("---\ntitle: Cache Layer\nai_keywords: \"cache, eviction, lru\"\nconsciousness_score: \"2.5\"\n---\n# Cache Layer\nBody text.\n")
	fm, body, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fm["title"].AsString(); got != "Cache Layer" {
		t.Errorf("title = %q, want %q", got, "Cache Layer")
	}
	if got := fm["ai_keywords"].AsList(); len(got) != 3 || got[0] != "cache" {
		t.Errorf("keywords = %v", got)
	}
	if body != "# Cache Layer\nBody text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParse_MissingLeadingDelimiter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	fm, body, err := Parse(input)
	if !errors.Is(err, apperr.ErrMalformedFrontMatter) {
		t.Fatalf("err = %v, want ErrMalformedFrontMatter", err)
	}
	if fm != nil {
		t.Errorf("expected nil front-matter, got %v", fm)
	}
	if body != string(input) {
		t.Errorf("body must be returned verbatim, got %q", body)
	}
}

func TestParse_MissingClosingDelimiter(t *testing.T) {
	input := []byte("---\ntitle: Unclosed\nno closing fence\n")
	_, body, err := Parse(input)
	if !errors.Is(err, apperr.ErrMalformedFrontMatter) {
		t.Fatalf("err = %v, want ErrMalformedFrontMatter", err)
	}
	if body != string(input) {
		t.Errorf("body = %q", body)
	}
}

func TestParse_InvalidYAMLKeepsBody(t *testing.T) {
	input := []byte("---\ntitle: API: v2 design\n---\nbody\n")
	_, body, err := Parse(input)
	if !errors.Is(err, apperr.ErrMalformedFrontMatter) {
		t.Fatalf("err = %v, want ErrMalformedFrontMatter", err)
	}
	if body != "body\n" {
		t.Errorf("body = %q, want %q", body, "body\n")
	}
}

func TestParse_ScalarCanonicalization(t *testing.T) {
	input := []byte("---\nversion: 2\nvalidation_status: true\nconsciousness_score: 2.5\n---\nx\n")
	fm, _, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for key, want := range map[string]string{
		"version":             "2",
		"validation_status":   "true",
		"consciousness_score": "2.5",
	} {
		if got := fm[key].AsString(); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestEmit_RoundTrip(t *testing.T) {
	input := []byte("---\ntitle: \"API: v2 design\"\nai_keywords: \"api, design, versioning\"\ncross_references:\n  - a/one.md\n  - b/two.md\nconsciousness_score: \"1.0\"\n---\nThe body stays untouched.\n")
	fm, body, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	fm2, body2, err := Parse(Emit(fm, body))
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if !reflect.DeepEqual(fm, fm2) {
		t.Errorf("front-matter changed across round trip:\n  first:  %#v\n  second: %#v", fm, fm2)
	}
	if body2 != body {
		t.Errorf("body changed: %q vs %q", body, body2)
	}
}

func TestValue_AsListCommaSplit(t *testing.T) {
	v := String("cache, eviction , ,lru")
	got := v.AsList()
	want := []string{"cache", "eviction", "lru"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AsList = %v, want %v", got, want)
	}
}

func TestFieldsPresent(t *testing.T) {
	fm := FrontMatter{
		"title":            String("T"),
		"ai_keywords":      String("a, b"),
		"version":          String("v1.0.0"),
		"prior_versions":   Strings(), // empty list does not count
		"ai_summary":       String("summary"),
		"cross_references": Strings("x/y.md"),
		"unrelated":        String("ignored"),
	}
	req, opt := FieldsPresent(fm)
	if len(req) != 3 {
		t.Errorf("required = %v, want 3 entries", req)
	}
	if len(opt) != 2 {
		t.Errorf("optional = %v, want 2 entries", opt)
	}
}
