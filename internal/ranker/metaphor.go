package ranker

import "strings"

// Vocabulary groups the biological metaphor terms used for the
// metaphor-density ranking bonus.
type Vocabulary struct {
	categories []category
}

type category struct {
	name  string
	terms []string
}

// DefaultVocabulary returns the built-in metaphor categories.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{categories: []category{
		{"cellular", []string{"cell", "membrane", "nucleus", "cytoplasm", "organelle", "mitochondria"}},
		{"neural", []string{"neuron", "synapse", "dendrite", "axon", "neural network", "brain", "consciousness"}},
		{"genetic", []string{"dna", "gene", "chromosome", "mutation", "evolution", "adaptation"}},
		{"ecosystem", []string{"symbiosis", "parasite", "host", "mutualism", "evolution", "adaptation"}},
		{"immune", []string{"antibody", "antigen", "defense", "immunity", "infection", "protection"}},
		{"circulatory", []string{"blood", "vein", "artery", "heart", "circulation", "flow", "transport"}},
		{"endocrine", []string{"hormone", "gland", "regulation", "adaptation", "balance"}},
		{"muscular", []string{"muscle", "contraction", "force", "coordination", "execution"}},
		{"skeletal", []string{"bone", "structure", "support", "integrity", "foundation"}},
		{"embryonic", []string{"embryo", "gestation", "birth", "development", "maturation"}},
		{"quantum", []string{"quantum", "resonance", "field", "energy", "vibration", "harmony"}},
		{"cosmic", []string{"galaxy", "stellar", "universe", "cosmic", "infinite", "transcendent"}},
	}}
}

// hits counts metaphor term occurrences (presence per term, not
// frequency) in the lowercased text.
func (v *Vocabulary) hits(text string) int {
	n := 0
	for _, c := range v.categories {
		for _, term := range c.terms {
			if strings.Contains(text, term) {
				n++
			}
		}
	}
	return n
}

// alignedCategories counts categories where both the query and the
// document mention at least one term.
func (v *Vocabulary) alignedCategories(query, text string) int {
	n := 0
	for _, c := range v.categories {
		if containsAny(query, c.terms) && containsAny(text, c.terms) {
			n++
		}
	}
	return n
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
