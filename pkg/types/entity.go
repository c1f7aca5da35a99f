package types

// Entity represents a named entity extracted from content.
// Entities can be people, organizations, locations, dates, products,
// technologies, or events. An entity accumulates mentions from every
// chunk, frame, or transcript it appeared in.
type Entity struct {
	Name        string    `json:"name"`                  // Display name (dedup key together with Type)
	Type        string    `json:"type"`                  // Entity type (see EntityType constants)
	Description string    `json:"description,omitempty"` // Human-readable description
	Mentions    []Mention `json:"mentions"`              // Occurrences, in order of appearance
}

// Mention is a single occurrence of an entity within content.
type Mention struct {
	Context   string  `json:"context"`   // Surrounding text
	Position  int     `json:"position"`  // Line or byte offset within the source
	Relevance float64 `json:"relevance"` // Confidence score in [0, 1]
	Frame     int     `json:"frame"`     // Source frame index for video-derived mentions, -1 otherwise
}

// NoFrame marks a mention that did not originate from a video frame.
const NoFrame = -1

// NewEntity creates an entity with a single mention. Relevance is clamped
// to [0, 1] rather than propagated out of range.
func NewEntity(name, entityType, description string, mention Mention) Entity {
	mention.Relevance = ClampRelevance(mention.Relevance)
	return Entity{
		Name:        name,
		Type:        entityType,
		Description: description,
		Mentions:    []Mention{mention},
	}
}

// AddMention appends a mention, clamping its relevance to [0, 1].
func (e *Entity) AddMention(m Mention) {
	m.Relevance = ClampRelevance(m.Relevance)
	e.Mentions = append(e.Mentions, m)
}

// MaxRelevance returns the highest relevance across the entity's mentions,
// or 0 when the entity has no mentions.
func (e *Entity) MaxRelevance() float64 {
	var max float64
	for _, m := range e.Mentions {
		if m.Relevance > max {
			max = m.Relevance
		}
	}
	return max
}

// ClampRelevance clips a relevance score into [0, 1].
func ClampRelevance(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
