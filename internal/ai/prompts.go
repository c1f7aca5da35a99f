package ai

import (
	"fmt"
	"strings"
)

// entityTypeDescriptions maps entity type IDs to brief descriptions for prompts.
var entityTypeDescriptions = map[string]string{
	"person":       "Individual human",
	"organization": "Company, institution, or group",
	"location":     "Place, city, country, or region",
	"date":         "Calendar date or time period",
	"product":      "Named product or service",
	"technology":   "Software, framework, language, or technical system",
	"event":        "Meeting, incident, or occurrence",
	"other":        "Named entity outside the other categories",
}

// promptEntityTypeList renders the allowed-types section of a prompt.
// When restrict is empty, the full vocabulary is listed.
func promptEntityTypeList(restrict []string) string {
	names := restrict
	if len(names) == 0 {
		names = []string{"person", "organization", "location", "date", "product", "technology", "event", "other"}
	}
	var b strings.Builder
	for _, n := range names {
		desc := entityTypeDescriptions[n]
		if desc == "" {
			desc = n
		}
		fmt.Fprintf(&b, "- %s: %s\n", n, desc)
	}
	return strings.TrimRight(b.String(), "\n")
}

// jsonContract is the shared strict-JSON tail appended to every extraction
// prompt. LLMs drift toward markdown fences and prose without it.
const jsonContract = `REQUIRED JSON STRUCTURE:
Your response MUST start with { and end with }
Your response MUST have an "entities" key with an array value
Each entity MUST have: name, type, description, relevance, context, position

Example structure (EXACT FORMAT REQUIRED):
{
  "entities": [
    {"name":"Alice","type":"person","description":"CTO of Acme","relevance":0.95,"context":"Alice presented the roadmap","position":3}
  ]
}

VALIDATION (STRICT):
1. Start with { - End with }
2. "entities" value must be an array [...]
3. No extra fields, no null values, no trailing commas
4. relevance 0.0-1.0
5. position is the approximate line number of the mention

RESPOND WITH ONLY THE JSON OBJECT (nothing else):`

// ExtractionPrompt builds the strict JSON-only extraction prompt for the
// given modality. restrict narrows the allowed entity types when the caller
// has configured an entityTypes filter.
func ExtractionPrompt(kind PromptKind, content, language string, restrict []string) string {
	var task string
	switch kind {
	case PromptCode:
		lang := language
		if lang == "" {
			lang = "unknown language"
		}
		task = fmt.Sprintf("Extract named entities from the following %s source code. Include imported libraries, frameworks, and named systems as technology entities, plus any people, organizations, dates, or products in comments and strings.", lang)
	case PromptPDF:
		task = "Extract named entities from the following text, which was extracted from a PDF document. Layout artifacts such as broken lines and page numbers should be ignored."
	case PromptImage:
		task = "Extract named entities visible in this image: people, organizations (logos, signage), locations, dates, products, and technologies. Use on-screen text and recognizable objects."
	case PromptVideo:
		task = "Extract named entities from this video frame: people, organizations, locations, dates, products, and technologies visible in the frame."
	default:
		task = "Extract named entities from the following text."
	}

	var b strings.Builder
	b.WriteString("TASK: ")
	b.WriteString(task)
	b.WriteString("\nOUTPUT: ONLY valid JSON. NO markdown. NO code blocks. NO backticks.\n\n")
	b.WriteString("ENTITY TYPES (ONLY these):\n")
	b.WriteString(promptEntityTypeList(restrict))
	b.WriteString("\n\n")
	b.WriteString(jsonContract)
	if kind != PromptImage && kind != PromptVideo {
		b.WriteString("\n\nCONTENT:\n")
		b.WriteString(content)
	}
	return b.String()
}

// TranscribePrompt builds the prompt for audio transcription requests.
const TranscribePrompt = `Transcribe the attached audio track verbatim. Respond with only the transcript text, no commentary, no timestamps.`
