// Package media wraps the external media tools the extraction strategies
// depend on: ffprobe/ffmpeg for video probing, frame sampling, and audio
// extraction, plus in-process PDF text extraction. All process invocations
// carry a context deadline; a nonzero exit or missing binary is a failure.
package media

import "context"

// Metadata describes one media file as reported by the prober.
type Metadata struct {
	Duration   float64 // seconds
	HasAudio   bool
	HasVideo   bool
	VideoCodec string
	AudioCodec string
}

// Tools is the media tool collaborator interface injected into the video and
// PDF extraction strategies. Implementations must be safe for concurrent use.
type Tools interface {
	// Probe extracts metadata (duration, stream presence, codecs).
	Probe(ctx context.Context, path string) (*Metadata, error)

	// ExtractFrames emits up to maxFrames JPEG frames into outDir according
	// to the sampling strategy and returns the frame file paths in order.
	ExtractFrames(ctx context.Context, path, outDir, strategy string, maxFrames int) ([]string, error)

	// ExtractAudio extracts the audio track as WAV to outPath.
	ExtractAudio(ctx context.Context, path, outPath string) (string, error)

	// PDFToText extracts plain text from a PDF file.
	PDFToText(path string) (string, error)
}
