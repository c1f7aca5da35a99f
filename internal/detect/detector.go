// Package detect classifies raw input into a MIME-like content type using
// file extension tables for paths and ordered content heuristics for inline
// text. Detection never fails: unknown input always resolves to a type.
package detect

import (
	"path/filepath"
	"strings"
)

// extensionTypes maps lowercase file extensions (without the dot) to MIME types.
var extensionTypes = map[string]string{
	// Text
	"txt": "text/plain",
	"md":  "text/markdown",
	"csv": "text/csv",
	"log": "text/plain",

	// Structured
	"json": "application/json",
	"xml":  "application/xml",
	"html": "text/html",
	"htm":  "text/html",
	"yaml": "application/yaml",
	"yml":  "application/yaml",

	// Code
	"py":    "text/x-python",
	"js":    "text/javascript",
	"ts":    "text/x-typescript",
	"go":    "text/x-go",
	"rs":    "text/x-rust",
	"java":  "text/x-java",
	"c":     "text/x-c",
	"h":     "text/x-c",
	"cpp":   "text/x-c++",
	"rb":    "text/x-ruby",
	"sh":    "text/x-shellscript",
	"swift": "text/x-swift",

	// Documents
	"pdf": "application/pdf",

	// Images
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",

	// Video
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
}

// DetectPath maps a filesystem path's extension to a MIME type.
// Unknown extensions resolve to application/octet-stream.
func DetectPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if mime, ok := extensionTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// DetectContent applies ordered heuristics against inline content (no file
// path available). Heuristics inspect the first non-blank line only.
func DetectContent(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "text/plain"
	}

	firstLine := trimmed
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		firstLine = strings.TrimSpace(trimmed[:idx])
	}

	// JSON-looking braces or brackets
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "application/json"
	}

	// XML/HTML prologue: a declaration, doctype, or opening tag. A bare "<"
	// followed by anything else (prose like "< 5 items") is not markup.
	if strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<!DOCTYPE") || looksLikeTag(trimmed) {
		return "application/xml"
	}

	// Python-shaped first token
	token := firstLine
	if idx := strings.IndexByte(firstLine, ' '); idx >= 0 {
		token = firstLine[:idx]
	}
	switch token {
	case "import", "from", "def", "class":
		return "text/x-python"
	}
	if strings.HasPrefix(firstLine, "#!") && strings.Contains(firstLine, "python") {
		return "text/x-python"
	}

	return "text/plain"
}

// looksLikeTag reports whether s opens with an XML/HTML element tag.
func looksLikeTag(s string) bool {
	if len(s) < 2 || s[0] != '<' {
		return false
	}
	c := s[1]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '/'
}

// Detect resolves input to a content type. When path is non-empty the
// extension table is consulted; otherwise content heuristics apply.
func Detect(path, content string) string {
	if path != "" {
		return DetectPath(path)
	}
	return DetectContent(content)
}

// IsChunkEligible reports whether content of the given type may be split
// into chunks. Binary types (image/*, video/*) are never chunked.
func IsChunkEligible(contentType string) bool {
	if strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/") {
		return false
	}
	if strings.HasPrefix(contentType, "text/") {
		return true
	}
	switch contentType {
	case "application/json", "application/xml", "application/yaml", "application/pdf":
		return true
	}
	return false
}

// IsCode reports whether the content type identifies source code.
// Code is chunked along paragraph (logical block) boundaries regardless of
// the requested strategy, since raw byte windows split declarations.
func IsCode(contentType string) bool {
	if !strings.HasPrefix(contentType, "text/x-") {
		return contentType == "text/javascript"
	}
	switch contentType {
	case "text/x-python", "text/x-typescript", "text/x-go", "text/x-rust",
		"text/x-java", "text/x-c", "text/x-c++", "text/x-ruby",
		"text/x-shellscript", "text/x-swift":
		return true
	}
	return false
}
