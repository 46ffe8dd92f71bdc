package corpus

import (
	"strconv"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// BodyPrefixLen is how much body text feeds the embedding.
const BodyPrefixLen = 1000

// timestampLayout is the last_updated format, optionally followed by a
// timezone abbreviation which is ignored.
const timestampLayout = "2006-01-02 15:04:05"

// Load walks the docs root and builds the corpus. Files that fail
// front-matter parsing are recorded as violations and excluded so they
// cannot corrupt downstream components. The walk order is sorted, so the
// result is deterministic.
func Load(store storage.Provider) (*Corpus, []models.Violation, error) {
	infos, err := store.List("")
	if err != nil {
		return nil, nil, err
	}

	var docs []*models.Document
	var violations []models.Violation
	for _, info := range infos {
		data, err := store.Read(info.Path)
		if err != nil {
			violations = append(violations, models.Violation{
				Path: info.Path, Kind: "read_error", Detail: err.Error(),
			})
			continue
		}
		fm, body, err := frontmatter.Parse(data)
		if err != nil {
			violations = append(violations, models.Violation{
				Path: info.Path, Kind: "malformed_front_matter", Detail: err.Error(),
			})
			continue
		}
		doc := buildDocument(info.Path, fm, body)
		doc.Checksum = info.Checksum
		docs = append(docs, doc)
	}
	return New(docs), violations, nil
}

func buildDocument(id string, fm frontmatter.FrontMatter, body string) *models.Document {
	doc := &models.Document{
		ID:               id,
		Title:            fm["title"].AsString(),
		Keywords:         fm["ai_keywords"].AsList(),
		Summary:          fm["ai_summary"].AsString(),
		BiologicalSystem: fm["biological_system"].AsString(),
		CrossReferences:  fm["cross_references"].AsList(),
		Phase:            ParsePhase(fm["evolutionary_phase"].AsString()),
	}
	if doc.Title == "" {
		doc.Title = id
	}

	trimmed := strings.TrimSpace(body)
	if len(trimmed) > BodyPrefixLen {
		trimmed = trimmed[:BodyPrefixLen]
	}
	doc.BodyPrefix = trimmed

	if ts, ok := ParseTimestamp(fm["last_updated"].AsString()); ok {
		doc.LastUpdated = ts
	}
	if score, ok := fm["consciousness_score"].Float(); ok {
		doc.ConsciousnessScore = score
	}
	doc.RequiredPresent, doc.OptionalPresent = frontmatter.FieldsPresent(fm)
	return doc
}

// ParsePhase extracts the integer major phase from a versioned phase
// string: "12.3" → 12. Free text yields PhaseUnknown.
func ParsePhase(phase string) int {
	phase = strings.TrimSpace(phase)
	if phase == "" {
		return models.PhaseUnknown
	}
	head := phase
	if i := strings.IndexByte(phase, '.'); i >= 0 {
		head = phase[:i]
	}
	n, err := strconv.Atoi(head)
	if err != nil || n < 0 {
		return models.PhaseUnknown
	}
	return n
}

// ParseTimestamp parses "YYYY-MM-DD HH:MM:SS" with an optional trailing
// timezone abbreviation ("2025-10-25 19:38:45 CET").
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(timestampLayout, raw); err == nil {
		return t, true
	}
	// Drop a trailing zone token and retry.
	if i := strings.LastIndexByte(raw, ' '); i > 0 {
		if t, err := time.Parse(timestampLayout, raw[:i]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
