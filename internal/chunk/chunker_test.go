package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbvault/ingestor/pkg/types"
)

func TestNewValidation(t *testing.T) {
	_, err := New(0, 0, types.ChunkStrategySize)
	assert.Error(t, err)

	_, err = New(100, 100, types.ChunkStrategySize)
	assert.Error(t, err)

	_, err = New(100, -1, types.ChunkStrategySize)
	assert.Error(t, err)

	_, err = New(100, 10, "zigzag")
	assert.Error(t, err)

	_, err = New(100, 10, types.ChunkStrategyParagraph)
	assert.NoError(t, err)
}

func TestSmallPayloadSingleChunk(t *testing.T) {
	c, err := New(1000, 100, types.ChunkStrategySize)
	require.NoError(t, err)

	chunks := c.Chunk("short content")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].SequenceIndex)
	assert.Equal(t, "short content", chunks[0].Payload)
	assert.Equal(t, 0, chunks[0].ByteOffset)
}

// TestSizeWindows exercises the fixed-window strategy with a large payload:
// four windows with indices 0-3, each overlapping the next by 5000 bytes,
// covering the full payload.
func TestSizeWindows(t *testing.T) {
	payload := strings.Repeat("x", 1900000)
	c, err := New(500000, 5000, types.ChunkStrategySize)
	require.NoError(t, err)

	chunks := c.Chunk(payload)
	require.Len(t, chunks, 4)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.SequenceIndex)
	}

	// Each window starts Overlap bytes before the previous window's end.
	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].ByteOffset + len(chunks[i-1].Payload)
		assert.Equal(t, prevEnd-5000, chunks[i].ByteOffset, "chunk %d overlap", i)
	}

	assertCoverage(t, payload, chunks)
}

func TestParagraphPacking(t *testing.T) {
	paras := []string{
		"First paragraph about Alice.",
		"Second paragraph about Bob and the Acme project.",
		"Third paragraph mentions Carol.",
		"Fourth paragraph closes the document.",
	}
	payload := strings.Join(paras, "\n\n")

	c, err := New(90, 40, types.ChunkStrategyParagraph)
	require.NoError(t, err)

	chunks := c.Chunk(payload)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.SequenceIndex)
		// Offsets point into the original payload.
		assert.Equal(t, ch.Payload, payload[ch.ByteOffset:ch.ByteOffset+len(ch.Payload)])
	}

	assertCoverage(t, payload, chunks)
}

func TestSentencePacking(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	payload := strings.TrimRight(strings.Repeat(sentence, 40), " ")

	c, err := New(200, 50, types.ChunkStrategySentence)
	require.NoError(t, err)

	chunks := c.Chunk(payload)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.SequenceIndex)
		assert.Equal(t, ch.Payload, payload[ch.ByteOffset:ch.ByteOffset+len(ch.Payload)])
	}

	assertCoverage(t, payload, chunks)
}

// TestOversizedParagraph keeps a paragraph larger than the chunk size intact
// as its own chunk instead of splitting it mid-boundary.
func TestOversizedParagraph(t *testing.T) {
	big := strings.Repeat("word ", 100) // ~500 bytes, no blank lines
	payload := "intro\n\n" + big + "\n\noutro"

	c, err := New(100, 20, types.ChunkStrategyParagraph)
	require.NoError(t, err)

	chunks := c.Chunk(payload)
	require.NotEmpty(t, chunks)
	assertCoverage(t, payload, chunks)

	found := false
	for _, ch := range chunks {
		if len(ch.Payload) > 100 {
			found = true
		}
	}
	assert.True(t, found, "expected one oversized chunk holding the giant paragraph")
}

// assertCoverage verifies that concatenating chunk payloads minus the overlap
// regions reconstructs the original payload exactly.
func assertCoverage(t *testing.T, payload string, chunks []types.Chunk) {
	t.Helper()
	var b strings.Builder
	end := 0
	for _, ch := range chunks {
		require.LessOrEqual(t, ch.ByteOffset, end, "gap before chunk %d", ch.SequenceIndex)
		skip := end - ch.ByteOffset
		require.LessOrEqual(t, skip, len(ch.Payload), "chunk %d fully contained in previous", ch.SequenceIndex)
		b.WriteString(ch.Payload[skip:])
		end = ch.ByteOffset + len(ch.Payload)
	}
	require.Equal(t, payload, b.String())
}

func TestSentenceSplitterPreservesBytes(t *testing.T) {
	payload := "One. Two! Three? Four without terminator"
	segs := splitSentences(payload)
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	assert.Equal(t, payload, b.String())
	assert.Len(t, segs, 4)
}

func TestParagraphSplitterPreservesBytes(t *testing.T) {
	payload := "a\n\nb\n\n\nc\n \nd"
	segs := splitParagraphs(payload)
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	assert.Equal(t, payload, b.String())
}
