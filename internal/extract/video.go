package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/internal/media"
	"github.com/kbvault/ingestor/pkg/types"
)

// Duration buckets for sampling strategy selection, in seconds.
const (
	sceneDurationCutoff    = 600.0
	keyframeDurationCutoff = 300.0
	uniformDurationCutoff  = 60.0
)

// frameWorkers is the worker pool size for parallel frame analysis.
const frameWorkers = 4

// VideoExtractor runs the video sub-pipeline: probe, frame sampling, audio
// transcription, per-frame image analysis, and a final merge. Frame and
// audio scratch files live in a per-invocation temp directory that is always
// removed, success or failure.
type VideoExtractor struct {
	Backend ai.Backend
	Tools   media.Tools
	Frames  *ImageExtractor
}

// SelectSamplingStrategy chooses the frame sampling strategy as a pure
// function of duration, with an explicit override winning outright.
func SelectSamplingStrategy(duration float64, override string) string {
	if override != "" {
		return override
	}
	switch {
	case duration > sceneDurationCutoff:
		return types.SamplingScene
	case duration > keyframeDurationCutoff:
		return types.SamplingKeyframe
	case duration > uniformDurationCutoff:
		return types.SamplingUniform
	default:
		return adaptiveStrategy(duration)
	}
}

// adaptiveStrategy resolves the adaptive bucket for short clips: dense
// uniform sampling below AdaptiveDenseCutoff, scene detection between the
// cutoffs, keyframes above.
func adaptiveStrategy(duration float64) string {
	switch {
	case duration <= AdaptiveDenseCutoff:
		return types.SamplingUniform
	case duration <= AdaptiveSceneCutoff:
		return types.SamplingScene
	default:
		return types.SamplingKeyframe
	}
}

// Extract runs the full video pipeline. Probe failure is fatal for the
// extraction; audio failure degrades to frame-only entities; individual
// frame failures are logged and skipped.
func (x *VideoExtractor) Extract(ctx context.Context, content Content, opts Options) *types.ExtractionResult {
	start := time.Now()

	if x.Backend == nil {
		return fail(fmt.Errorf("%w: video analysis has no rule-based fallback", ErrBackendUnavailable), start)
	}
	if x.Tools == nil {
		return fail(fmt.Errorf("%w: no media tools configured", ErrToolInvocationFailure), start)
	}
	path := content.SourcePath
	if path == "" {
		return fail(fmt.Errorf("%w: video extraction requires a file path", ErrUnsupportedContentType), start)
	}

	meta, err := x.Tools.Probe(ctx, path)
	if err != nil {
		return fail(fmt.Errorf("%w: probe: %v", ErrToolInvocationFailure, err), start)
	}

	scratchDir, err := os.MkdirTemp("", "ingestor-video-*")
	if err != nil {
		return fail(fmt.Errorf("failed to create scratch directory: %w", err), start)
	}
	defer os.RemoveAll(scratchDir)

	strategy := SelectSamplingStrategy(meta.Duration, opts.Video.SamplingStrategy)
	maxFrames := opts.Video.MaxFrames
	if maxFrames <= 0 {
		maxFrames = 30
	}

	frames, err := x.Tools.ExtractFrames(ctx, path, scratchDir, strategy, maxFrames)
	if err != nil {
		return fail(fmt.Errorf("%w: frames: %v", ErrToolInvocationFailure, err), start)
	}

	var audioEntities []types.Entity
	if meta.HasAudio {
		audioEntities = x.audioEntities(ctx, path, scratchDir, opts)
	}

	frameEntities, analyzed := x.frameEntities(ctx, frames, opts)

	if analyzed == 0 && len(frames) > 0 && len(audioEntities) == 0 {
		return fail(fmt.Errorf("all %d analyzed frames failed", len(frames)), start)
	}

	merged := Merge(frameEntities, audioEntities)
	return finish(merged, opts, start)
}

// audioEntities extracts the audio track, transcribes it, and extracts
// entities from the transcript. Every step degrades gracefully: a failure
// returns no audio entities rather than failing the video as a whole.
func (x *VideoExtractor) audioEntities(ctx context.Context, path, scratchDir string, opts Options) []types.Entity {
	audioPath := filepath.Join(scratchDir, "audio.wav")
	if _, err := x.Tools.ExtractAudio(ctx, path, audioPath); err != nil {
		log.Printf("extract: audio extraction failed for %s, continuing without audio: %v", path, err)
		return nil
	}

	data, err := os.ReadFile(audioPath)
	if err != nil {
		log.Printf("extract: failed to read extracted audio: %v", err)
		return nil
	}

	transcript, err := x.Backend.Transcribe(ctx, base64.StdEncoding.EncodeToString(data), "audio/wav")
	if err != nil {
		log.Printf("extract: transcription failed for %s, continuing without audio: %v", path, err)
		return nil
	}
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	entities := analyzeWithBackend(ctx, x.Backend, ai.AnalyzeRequest{
		Kind:        ai.PromptText,
		Content:     transcript,
		EntityTypes: opts.EntityTypes,
	})
	if len(entities) == 0 {
		entities = extractWithRules(transcript)
	}
	return entities
}

// frameEntities analyzes an evenly-spaced subset of the extracted frames in
// parallel and tags every resulting mention with its source frame index.
// Returns the collected entities and how many frames succeeded.
func (x *VideoExtractor) frameEntities(ctx context.Context, frames []string, opts Options) ([]types.Entity, int) {
	maxAnalyze := opts.Video.MaxFramesToAnalyze
	if maxAnalyze <= 0 {
		maxAnalyze = 5
	}
	selected := evenlySpaced(len(frames), maxAnalyze)
	if len(selected) == 0 {
		return nil, 0
	}

	pool, err := ants.NewPool(frameWorkers)
	if err != nil {
		log.Printf("extract: failed to create frame worker pool, analyzing serially: %v", err)
		return x.frameEntitiesSerial(ctx, frames, selected, opts)
	}
	defer pool.Release()

	// Results are collected per slot so output order matches frame order
	// regardless of completion order.
	results := make([][]types.Entity, len(selected))
	succeeded := make([]bool, len(selected))
	var wg sync.WaitGroup

	for slot, frameIdx := range selected {
		slot, frameIdx := slot, frameIdx
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			entities, ok := x.analyzeFrame(ctx, frames[frameIdx], frameIdx, opts)
			results[slot] = entities
			succeeded[slot] = ok
		})
		if submitErr != nil {
			wg.Done()
			log.Printf("extract: failed to submit frame %d: %v", frameIdx, submitErr)
		}
	}
	wg.Wait()

	var collected []types.Entity
	count := 0
	for slot := range results {
		collected = append(collected, results[slot]...)
		if succeeded[slot] {
			count++
		}
	}
	return collected, count
}

// frameEntitiesSerial is the degraded path when the pool cannot be created.
func (x *VideoExtractor) frameEntitiesSerial(ctx context.Context, frames []string, selected []int, opts Options) ([]types.Entity, int) {
	var collected []types.Entity
	count := 0
	for _, frameIdx := range selected {
		entities, ok := x.analyzeFrame(ctx, frames[frameIdx], frameIdx, opts)
		collected = append(collected, entities...)
		if ok {
			count++
		}
	}
	return collected, count
}

// analyzeFrame runs the image extractor on one frame and tags the mentions.
// A failing frame is logged and skipped, never aborting its siblings.
func (x *VideoExtractor) analyzeFrame(ctx context.Context, framePath string, frameIdx int, opts Options) ([]types.Entity, bool) {
	// Frame filtering happens after the merge; pass only the type filter on.
	frameOpts := Options{EntityTypes: opts.EntityTypes}
	result := x.Frames.ExtractFrame(ctx, Content{SourcePath: framePath, ContentType: "image/jpeg"}, frameOpts)
	if !result.Success {
		log.Printf("extract: frame %d failed, skipping: %s", frameIdx, result.Error)
		return nil, false
	}

	entities := result.Entities
	for i := range entities {
		for j := range entities[i].Mentions {
			entities[i].Mentions[j].Frame = frameIdx
		}
	}
	return entities, true
}

// evenlySpaced picks up to max indices spread evenly across n items.
func evenlySpaced(n, max int) []int {
	if n <= 0 {
		return nil
	}
	if n <= max {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	indices := make([]int, max)
	step := float64(n) / float64(max)
	for i := 0; i < max; i++ {
		indices[i] = int(float64(i) * step)
	}
	return indices
}

// Compile-time assertion.
var _ Strategy = (*VideoExtractor)(nil)
