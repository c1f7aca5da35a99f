package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain text", "notes.txt", "text/plain"},
		{"python source", "script.py", "text/x-python"},
		{"pdf document", "/tmp/report.pdf", "application/pdf"},
		{"jpeg image", "photo.JPG", "image/jpeg"},
		{"png image", "diagram.png", "image/png"},
		{"mp4 video", "clip.mp4", "video/mp4"},
		{"quicktime video", "clip.mov", "video/quicktime"},
		{"json file", "data.json", "application/json"},
		{"go source", "main.go", "text/x-go"},
		{"unknown extension", "blob.xyz", "application/octet-stream"},
		{"no extension", "Makefile2", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPath(tt.path))
		})
	}
}

func TestDetectContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"json object", `{"key": "value"}`, "application/json"},
		{"json array", `[1, 2, 3]`, "application/json"},
		{"xml prologue", `<?xml version="1.0"?><root/>`, "application/xml"},
		{"html doctype", "<!DOCTYPE html>\n<html></html>", "application/xml"},
		{"opening tag", "<html><body></body></html>", "application/xml"},
		{"closing tag first", "</note>", "application/xml"},
		{"prose with less-than", "< 5 items remain in stock.", "text/plain"},
		{"bare less-than", "<", "text/plain"},
		{"less-than digit", "<3 you all", "text/plain"},
		{"python import", "import os\nprint(os.getcwd())", "text/x-python"},
		{"python def", "def main():\n    pass", "text/x-python"},
		{"python class", "class Foo:\n    pass", "text/x-python"},
		{"python shebang", "#!/usr/bin/env python3\nprint('hi')", "text/x-python"},
		{"plain prose", "John Smith joined Acme in 2020.", "text/plain"},
		{"empty", "", "text/plain"},
		{"whitespace only", "   \n\t", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectContent(tt.content))
		})
	}
}

func TestDetectPrefersPath(t *testing.T) {
	// When a path is given, extension wins over content shape.
	got := Detect("data.txt", `{"looks": "like json"}`)
	assert.Equal(t, "text/plain", got)
}

func TestIsChunkEligible(t *testing.T) {
	assert.True(t, IsChunkEligible("text/plain"))
	assert.True(t, IsChunkEligible("text/x-python"))
	assert.True(t, IsChunkEligible("application/json"))
	assert.True(t, IsChunkEligible("application/pdf"))
	assert.False(t, IsChunkEligible("image/jpeg"))
	assert.False(t, IsChunkEligible("video/mp4"))
	assert.False(t, IsChunkEligible("application/octet-stream"))
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode("text/x-python"))
	assert.True(t, IsCode("text/javascript"))
	assert.True(t, IsCode("text/x-go"))
	assert.False(t, IsCode("text/plain"))
	assert.False(t, IsCode("application/json"))
}
