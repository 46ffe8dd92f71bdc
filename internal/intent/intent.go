// Package intent classifies a query into one of a small set of intent
// profiles that bias ranking toward the matching lifecycle phases and
// content categories.
package intent

import "strings"

// Unspecified is returned when no profile scores above zero.
const Unspecified = "unspecified"

// Scoring weights for profile matching.
const (
	exactWeight     = 3
	substringWeight = 1
)

// Definition is one intent profile. KeywordMultiplier scales lexical
// contributions for queries classified into this profile.
type Definition struct {
	Name              string   `json:"name"`
	Keywords          []string `json:"keywords"`
	PreferredPhases   []int    `json:"preferred_phases"`
	BoostCategories   []string `json:"boost_categories"`
	KeywordMultiplier float64  `json:"keyword_multiplier"`
}

// DefaultDefinitions returns the built-in profiles. Order matters:
// classification ties resolve to the earlier profile.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name: "implementation",
			Keywords: []string{
				"how", "implement", "build", "create", "customize",
				"modify", "develop", "code", "api", "integration",
			},
			PreferredPhases:   []int{4, 5, 6, 7, 8},
			BoostCategories:   []string{"technical", "implementation", "frameworks", "standards"},
			KeywordMultiplier: 1.0,
		},
		{
			Name: "theory",
			Keywords: []string{
				"what", "why", "concept", "theory", "understanding",
				"overview", "foundation", "basis", "groundwork",
			},
			PreferredPhases:   []int{1, 2, 3},
			BoostCategories:   []string{"foundation", "architecture", "consciousness", "biological"},
			KeywordMultiplier: 1.0,
		},
		{
			Name: "analysis",
			Keywords: []string{
				"analyze", "analytics", "reports", "metrics",
				"monitoring", "health", "performance", "insights",
			},
			PreferredPhases:   []int{9, 10, 11},
			BoostCategories:   []string{"analytics", "reporting", "monitoring", "health"},
			KeywordMultiplier: 1.0,
		},
		{
			Name: "guidance",
			Keywords: []string{
				"guide", "tutorial", "help", "best practices",
				"workflow", "process",
			},
			PreferredPhases:   []int{5, 7, 10, 12},
			BoostCategories:   []string{"guidance", "training", "requirements"},
			KeywordMultiplier: 1.0,
		},
	}
}

// Classifier scores queries against its profiles.
type Classifier struct {
	defs []Definition
}

// NewClassifier creates a Classifier; nil defs selects the defaults.
func NewClassifier(defs []Definition) *Classifier {
	if defs == nil {
		defs = DefaultDefinitions()
	}
	return &Classifier{defs: defs}
}

// Definitions returns the active profiles in declaration order.
func (c *Classifier) Definitions() []Definition { return c.defs }

// Lookup returns the profile named name, or false.
func (c *Classifier) Lookup(name string) (Definition, bool) {
	for _, d := range c.defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Classify picks the best-matching profile name for a query. Each
// profile keyword scores 3 for an exact query-token match and 1 for a
// substring hit; ties keep the earliest profile; an all-zero score is
// Unspecified.
func (c *Classifier) Classify(query string) string {
	q := strings.ToLower(query)
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(q) {
		tokens[strings.Trim(t, ".,;:!?\"'()")] = struct{}{}
	}

	best, bestScore := Unspecified, 0
	for _, d := range c.defs {
		score := 0
		for _, kw := range d.Keywords {
			if _, ok := tokens[kw]; ok {
				score += exactWeight
			} else if strings.Contains(q, kw) {
				score += substringWeight
			}
		}
		if score > bestScore {
			best, bestScore = d.Name, score
		}
	}
	return best
}
