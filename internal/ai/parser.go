package ai

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/kbvault/ingestor/pkg/types"
)

// EntityResponse is a single entity as returned by the LLM.
type EntityResponse struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	Relevance   float64 `json:"relevance"`
	Context     string  `json:"context,omitempty"`
	Position    int     `json:"position,omitempty"`
}

// entityExtractionResponse is the complete extraction response envelope.
type entityExtractionResponse struct {
	Entities []EntityResponse `json:"entities"`
}

// extractJSON extracts the first complete JSON object from a string that may
// contain extra text. LLMs add explanations and markdown fences despite
// instructions; the parser strips them rather than failing the batch.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // no JSON found, let the parser fail with the raw text
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text
}

// ParseEntityResponse parses extraction JSON and converts it into entities,
// filtering out invalid entries. Unknown entity types and out-of-range
// relevance scores are skipped rather than failing the entire batch; the
// error is non-nil only when the JSON itself is malformed.
//
// allowedTypes narrows the accepted vocabulary when the caller restricted
// entity types; empty means the full vocabulary.
func ParseEntityResponse(jsonStr string, allowedTypes []string) ([]types.Entity, error) {
	cleanJSON := extractJSON(jsonStr)

	var response entityExtractionResponse
	if err := json.Unmarshal([]byte(cleanJSON), &response); err != nil {
		return nil, fmt.Errorf("failed to parse entity JSON: %w", err)
	}

	allowed := map[string]bool{}
	for _, t := range allowedTypes {
		allowed[t] = true
	}

	entities := make([]types.Entity, 0, len(response.Entities))
	for _, er := range response.Entities {
		if strings.TrimSpace(er.Name) == "" {
			continue
		}
		if !types.IsValidEntityType(er.Type) {
			log.Printf("ai: skipping entity %q with unknown type %q", er.Name, er.Type)
			continue
		}
		if len(allowed) > 0 && !allowed[er.Type] {
			log.Printf("ai: skipping entity %q outside restricted types (%s)", er.Name, er.Type)
			continue
		}
		if er.Relevance < 0.0 || er.Relevance > 1.0 {
			log.Printf("ai: skipping entity %q with invalid relevance %f", er.Name, er.Relevance)
			continue
		}
		entities = append(entities, types.NewEntity(er.Name, er.Type, er.Description, types.Mention{
			Context:   er.Context,
			Position:  er.Position,
			Relevance: er.Relevance,
			Frame:     types.NoFrame,
		}))
	}

	return entities, nil
}
