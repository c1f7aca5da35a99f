// Package chunk splits large content into overlapping chunks so that entity
// extraction can run per-chunk without losing context that spans a boundary.
// Three strategies are supported: fixed-size byte windows, paragraph packing
// on blank-line boundaries, and sentence packing on terminal punctuation.
package chunk

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kbvault/ingestor/pkg/types"
)

// Chunker splits content into overlapping chunks.
type Chunker struct {
	Size     int // Maximum chunk size in bytes
	Overlap  int // Overlap carried into the next chunk, in bytes
	Strategy string
}

// New creates a Chunker, validating the configuration.
func New(size, overlap int, strategy string) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}
	if !types.IsValidChunkStrategy(strategy) {
		return nil, fmt.Errorf("unknown chunk strategy %q", strategy)
	}
	return &Chunker{Size: size, Overlap: overlap, Strategy: strategy}, nil
}

// Chunk splits payload into an ordered sequence of chunks with contiguous
// sequence indices starting at 0. The chunks cover the entire payload with no
// gaps; overlap regions duplicate a trailing slice of one chunk into the next
// chunk's leading edge. Payloads that fit in a single chunk are returned
// unsplit.
func (c *Chunker) Chunk(payload string) []types.Chunk {
	if len(payload) <= c.Size {
		return []types.Chunk{{SequenceIndex: 0, Payload: payload, ByteOffset: 0}}
	}

	switch c.Strategy {
	case types.ChunkStrategyParagraph:
		return c.pack(splitParagraphs(payload))
	case types.ChunkStrategySentence:
		return c.pack(splitSentences(payload))
	default:
		return c.sizeWindows(payload)
	}
}

// sizeWindows produces fixed byte windows. Consecutive windows share Overlap
// bytes: each window after the first starts Overlap bytes before the previous
// window's end.
func (c *Chunker) sizeWindows(payload string) []types.Chunk {
	var chunks []types.Chunk
	step := c.Size - c.Overlap
	for start := 0; ; start += step {
		end := start + c.Size
		if end >= len(payload) {
			chunks = append(chunks, types.Chunk{
				SequenceIndex: len(chunks),
				Payload:       payload[start:],
				ByteOffset:    start,
			})
			break
		}
		chunks = append(chunks, types.Chunk{
			SequenceIndex: len(chunks),
			Payload:       payload[start:end],
			ByteOffset:    start,
		})
	}
	return chunks
}

// segment is a separator-preserving slice of the payload. Concatenating all
// segments of a split reconstructs the payload exactly, which is what makes
// chunk coverage provable.
type segment struct {
	text   string
	offset int
}

// pack greedily fills chunks with consecutive segments up to Size, then
// carries as many trailing segments as fit in Overlap into the next chunk.
// A single segment larger than Size becomes its own oversized chunk rather
// than being split mid-boundary.
func (c *Chunker) pack(segments []segment) []types.Chunk {
	var chunks []types.Chunk
	var current []segment
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		var b strings.Builder
		for _, s := range current {
			b.WriteString(s.text)
		}
		chunks = append(chunks, types.Chunk{
			SequenceIndex: len(chunks),
			Payload:       b.String(),
			ByteOffset:    current[0].offset,
		})
	}

	for _, seg := range segments {
		if currentLen > 0 && currentLen+len(seg.text) > c.Size {
			flush()

			// Carry trailing segments into the next chunk as overlap.
			carry := carryTail(current, c.Overlap)
			current = current[len(current)-carry:]
			currentLen = 0
			for _, s := range current {
				currentLen += len(s.text)
			}
		}
		current = append(current, seg)
		currentLen += len(seg.text)
	}
	flush()

	return chunks
}

// carryTail returns how many trailing segments fit within overlap bytes.
func carryTail(segments []segment, overlap int) int {
	carry := 0
	total := 0
	for i := len(segments) - 1; i >= 0; i-- {
		if total+len(segments[i].text) > overlap {
			break
		}
		total += len(segments[i].text)
		carry++
	}
	return carry
}

// splitParagraphs splits on blank-line boundaries. The blank-line run stays
// attached to the preceding paragraph so that no bytes are lost.
func splitParagraphs(payload string) []segment {
	var segments []segment
	start := 0
	i := 0
	for i < len(payload) {
		// Find the next blank-line run: \n followed by optional spaces and another \n.
		if payload[i] == '\n' {
			j := i + 1
			for j < len(payload) && (payload[j] == ' ' || payload[j] == '\t' || payload[j] == '\r') {
				j++
			}
			if j < len(payload) && payload[j] == '\n' {
				// Consume the full run of blank lines.
				for j < len(payload) && (payload[j] == '\n' || payload[j] == ' ' || payload[j] == '\t' || payload[j] == '\r') {
					j++
				}
				segments = append(segments, segment{text: payload[start:j], offset: start})
				start = j
				i = j
				continue
			}
		}
		i++
	}
	if start < len(payload) {
		segments = append(segments, segment{text: payload[start:], offset: start})
	}
	return segments
}

// splitSentences splits on sentence-terminal punctuation followed by
// whitespace. Terminators and trailing whitespace stay attached to the
// sentence they end.
func splitSentences(payload string) []segment {
	var segments []segment
	start := 0
	runes := []rune(payload)
	byteAt := 0 // byte offset of runes[i]

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		next := byteAt + len(string(r))
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			// Consume trailing whitespace into this sentence.
			j := i + 1
			end := next
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				end += len(string(runes[j]))
				j++
			}
			segments = append(segments, segment{text: payload[start:end], offset: start})
			start = end
			byteAt = end
			i = j - 1
			continue
		}
		byteAt = next
	}
	if start < len(payload) {
		segments = append(segments, segment{text: payload[start:], offset: start})
	}
	return segments
}
