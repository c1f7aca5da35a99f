package extract

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/pkg/types"
)

// CodeExtractor extracts entities from source code: imported libraries as
// technology entities, plus declarations (functions, classes, constants).
// Language is resolved from an explicit option, then the file extension,
// then content heuristics.
type CodeExtractor struct {
	Backend ai.Backend
}

// Extract runs the AI backend with a code prompt, falling back to the
// language-specific declaration batteries merged with the common battery.
func (x *CodeExtractor) Extract(ctx context.Context, content Content, opts Options) *types.ExtractionResult {
	start := time.Now()

	code, err := resolveText(content)
	if err != nil {
		return fail(err, start)
	}
	if strings.TrimSpace(code) == "" {
		return fail(ErrEmptyContent, start)
	}

	language := resolveLanguage(opts.Language, content.SourcePath, code)

	entities := analyzeWithBackend(ctx, x.Backend, ai.AnalyzeRequest{
		Kind:        ai.PromptCode,
		Content:     code,
		Language:    language,
		EntityTypes: opts.EntityTypes,
	})
	if len(entities) == 0 {
		entities = extractCodeEntities(code, language)
	}

	return finish(entities, opts, start)
}

// languageExtensions maps file extensions to language names.
var languageExtensions = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".go":    "go",
	".rs":    "rust",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".rb":    "ruby",
	".sh":    "shell",
	".swift": "swift",
}

// languageHints are content heuristics checked in order when neither an
// explicit option nor a file extension resolves the language.
var languageHints = []struct {
	language string
	re       *regexp.Regexp
}{
	{"python", regexp.MustCompile(`(?m)^\s*(?:def\s+\w+\s*\(|from\s+\w+\s+import\s|import\s+\w+\s*$)`)},
	{"go", regexp.MustCompile(`(?m)^\s*(?:package\s+\w+|func\s+\w+\s*\()`)},
	{"rust", regexp.MustCompile(`(?m)^\s*(?:fn\s+\w+|use\s+\w+::|let\s+mut\s)`)},
	{"java", regexp.MustCompile(`(?m)^\s*(?:public\s+class\s|import\s+java\.)`)},
	{"javascript", regexp.MustCompile(`(?m)^\s*(?:const\s+\w+\s*=|function\s+\w+\s*\(|require\s*\()`)},
}

// resolveLanguage picks the language from the explicit option, file
// extension, or content shape, in that order. Empty when nothing matches.
func resolveLanguage(explicit, sourcePath, code string) string {
	if explicit != "" {
		return strings.ToLower(explicit)
	}
	if sourcePath != "" {
		if lang, ok := languageExtensions[strings.ToLower(filepath.Ext(sourcePath))]; ok {
			return lang
		}
	}
	for _, hint := range languageHints {
		if hint.re.MatchString(code) {
			return hint.language
		}
	}
	return ""
}

// commonCodePatterns is the language-agnostic battery: import-like lines,
// function-like declarations, class-like declarations, ALL-CAPS constants.
var commonCodePatterns = []textPattern{
	{
		entityType:  types.EntityTypeTechnology,
		description: "Imported module",
		re:          regexp.MustCompile(`(?m)^\s*(?:import|from|require|use|include)\s+["'<]?([A-Za-z_][\w./-]*)`),
		nameGroup:   1,
		relevance:   0.8,
	},
	{
		entityType:  types.EntityTypeOther,
		description: "Function declaration",
		re:          regexp.MustCompile(`(?m)^\s*(?:def|func|fn|function)\s+([A-Za-z_]\w*)`),
		nameGroup:   1,
		relevance:   0.7,
	},
	{
		entityType:  types.EntityTypeOther,
		description: "Type declaration",
		re:          regexp.MustCompile(`(?m)^\s*(?:class|struct|trait|interface|enum)\s+([A-Za-z_]\w*)`),
		nameGroup:   1,
		relevance:   0.7,
	},
	{
		entityType:  types.EntityTypeOther,
		description: "Constant declaration",
		re:          regexp.MustCompile(`(?m)^\s*(?:const\s+)?([A-Z][A-Z0-9_]{2,})\s*(?::?=|:)`),
		nameGroup:   1,
		relevance:   0.65,
	},
}

// languagePatterns holds per-language declaration batteries layered on top
// of the common battery. One data table consumed by the shared matcher, not
// one method per language.
var languagePatterns = map[string][]textPattern{
	"python": {
		{
			entityType:  types.EntityTypeTechnology,
			description: "Python import",
			re:          regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\s`),
			nameGroup:   1,
			relevance:   0.85,
		},
		{
			entityType:  types.EntityTypeOther,
			description: "Python class",
			re:          regexp.MustCompile(`(?m)^\s*class\s+([A-Za-z_]\w*)\s*[(:]`),
			nameGroup:   1,
			relevance:   0.75,
		},
	},
	"go": {
		{
			entityType:  types.EntityTypeTechnology,
			description: "Go import",
			re:          regexp.MustCompile(`(?m)^\s*"([\w./-]+)"`),
			nameGroup:   1,
			relevance:   0.85,
		},
		{
			entityType:  types.EntityTypeOther,
			description: "Go type",
			re:          regexp.MustCompile(`(?m)^\s*type\s+([A-Za-z_]\w*)\s+(?:struct|interface)\b`),
			nameGroup:   1,
			relevance:   0.75,
		},
	},
	"rust": {
		{
			entityType:  types.EntityTypeTechnology,
			description: "Rust crate",
			re:          regexp.MustCompile(`(?m)^\s*use\s+(\w+)(?:::|;)`),
			nameGroup:   1,
			relevance:   0.85,
		},
		{
			entityType:  types.EntityTypeOther,
			description: "Rust trait",
			re:          regexp.MustCompile(`(?m)^\s*(?:pub\s+)?trait\s+([A-Za-z_]\w*)`),
			nameGroup:   1,
			relevance:   0.75,
		},
	},
	"javascript": {
		{
			entityType:  types.EntityTypeTechnology,
			description: "JavaScript dependency",
			re:          regexp.MustCompile(`require\s*\(\s*["']([\w@./-]+)["']\s*\)`),
			nameGroup:   1,
			relevance:   0.85,
		},
		{
			entityType:  types.EntityTypeTechnology,
			description: "ES module import",
			re:          regexp.MustCompile(`(?m)^\s*import\s+.*?\s+from\s+["']([\w@./-]+)["']`),
			nameGroup:   1,
			relevance:   0.85,
		},
	},
	"java": {
		{
			entityType:  types.EntityTypeTechnology,
			description: "Java import",
			re:          regexp.MustCompile(`(?m)^\s*import\s+([\w.]+);`),
			nameGroup:   1,
			relevance:   0.85,
		},
	},
}

// extractCodeEntities is the rule-based code fallback: the per-language
// battery (when the language resolved) layered before the common battery,
// then merged so repeated declarations collapse into one entity each.
func extractCodeEntities(code, language string) []types.Entity {
	patterns := append([]textPattern{}, languagePatterns[language]...)
	patterns = append(patterns, commonCodePatterns...)
	return Merge(matchPatterns(code, patterns))
}

// Compile-time assertion.
var _ Strategy = (*CodeExtractor)(nil)
