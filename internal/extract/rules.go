package extract

import (
	"regexp"
	"strings"

	"github.com/kbvault/ingestor/pkg/types"
)

// textPattern is one entry of the rule-based fallback battery: a category
// with a fixed relevance weight and the capture group holding the entity
// name (0 = whole match).
type textPattern struct {
	entityType  string
	description string
	re          *regexp.Regexp
	nameGroup   int
	relevance   float64
}

// textPatterns is the language-agnostic battery applied to prose. Order is
// priority order: when the same span matches multiple categories, the first
// category wins (person > organization > date > location > product).
var textPatterns = []textPattern{
	{
		entityType:  types.EntityTypePerson,
		description: "Person with title",
		re:          regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
		nameGroup:   1,
		relevance:   0.85,
	},
	{
		// Runs before the bare capitalized-pair person pattern; otherwise
		// "Acme Corporation" reads as a person name.
		entityType:  types.EntityTypeOrganization,
		description: "Organization with corporate suffix",
		re:          regexp.MustCompile(`\b([A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*)*\s+(?:Inc|Corp|Corporation|Company|LLC|Ltd|Group|Technologies|Systems|Labs|Foundation|Institute|University))\b\.?`),
		nameGroup:   1,
		relevance:   0.8,
	},
	{
		entityType:  types.EntityTypePerson,
		description: "Person name",
		re:          regexp.MustCompile(`\b([A-Z][a-z]+\s+[A-Z][a-z]+)\b`),
		nameGroup:   1,
		relevance:   0.75,
	},
	{
		// Any 2+ letter acronym matches; no stoplist is applied, so this
		// category over-matches abbreviations that are not organizations.
		entityType:  types.EntityTypeOrganization,
		description: "Acronym",
		re:          regexp.MustCompile(`\b([A-Z]{2,6})\b`),
		nameGroup:   1,
		relevance:   0.6,
	},
	{
		entityType:  types.EntityTypeDate,
		description: "ISO date",
		re:          regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
		nameGroup:   1,
		relevance:   0.8,
	},
	{
		entityType:  types.EntityTypeDate,
		description: "Written date",
		re:          regexp.MustCompile(`\b((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}(?:,\s*\d{4})?)\b`),
		nameGroup:   1,
		relevance:   0.8,
	},
	{
		entityType:  types.EntityTypeDate,
		description: "Numeric date",
		re:          regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`),
		nameGroup:   1,
		relevance:   0.8,
	},
	{
		entityType:  types.EntityTypeLocation,
		description: "Location after preposition",
		re:          regexp.MustCompile(`\b(?:in|at|from|near)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\b`),
		nameGroup:   1,
		relevance:   0.65,
	},
	{
		entityType:  types.EntityTypeProduct,
		description: "Versioned product",
		re:          regexp.MustCompile(`\b([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*\s+v?\d+(?:\.\d+)+)\b`),
		nameGroup:   1,
		relevance:   0.7,
	},
}

// span identifies one matched byte range for dedup across categories.
type span struct {
	start, end int
}

// matchPatterns runs a pattern battery over text. Patterns run in priority
// order; a span claimed by an earlier (higher priority) pattern is skipped
// by later ones. The same entity matched in several places accumulates one
// mention per occurrence via the merger.
func matchPatterns(text string, patterns []textPattern) []types.Entity {
	claimed := make(map[span]bool)
	var entities []types.Entity

	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			g := p.nameGroup * 2
			if g+1 >= len(loc) || loc[g] < 0 {
				continue
			}
			s := span{start: loc[g], end: loc[g+1]}
			if claimed[s] {
				continue
			}
			claimed[s] = true

			name := text[s.start:s.end]
			entities = append(entities, types.NewEntity(name, p.entityType, p.description, types.Mention{
				Context:   mentionContext(text, s.start, s.end),
				Position:  lineAt(text, s.start),
				Relevance: p.relevance,
				Frame:     types.NoFrame,
			}))
		}
	}

	return entities
}

// extractWithRules is the deterministic text fallback: run the battery and
// merge duplicate (name, type) pairs so each entity carries all mentions.
func extractWithRules(text string) []types.Entity {
	return Merge(matchPatterns(text, textPatterns))
}

// mentionContext returns a window of surrounding text, clipped to word
// boundaries where possible.
func mentionContext(text string, start, end int) string {
	const window = 60
	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(text) {
		hi = len(text)
	}
	ctx := text[lo:hi]
	ctx = strings.ReplaceAll(ctx, "\n", " ")
	return strings.TrimSpace(ctx)
}

// lineAt returns the 1-based line number containing byte offset.
func lineAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return 1 + strings.Count(text[:offset], "\n")
}
