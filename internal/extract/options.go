package extract

import "github.com/kbvault/ingestor/pkg/types"

// Adaptive sampling duration thresholds, in seconds. The cutoffs are
// inherited behavior with no stated rationale; they are kept as named
// constants rather than tuned.
const (
	AdaptiveDenseCutoff = 30.0
	AdaptiveSceneCutoff = 120.0
)

// VideoOptions holds the video-specific extraction knobs.
type VideoOptions struct {
	// SamplingStrategy overrides duration-based strategy selection when set.
	SamplingStrategy string

	// MaxFrames caps how many frames the media tool extracts.
	MaxFrames int

	// MaxFramesToAnalyze caps how many extracted frames are actually sent
	// to the AI backend, independent of MaxFrames.
	MaxFramesToAnalyze int
}

// Options configures one extraction pass. Filters are applied in a fixed
// order: confidence threshold, then entity types, then max entities.
type Options struct {
	// ConfidenceThreshold drops entities whose best mention relevance is
	// below the threshold. 0 keeps everything.
	ConfidenceThreshold float64

	// MaxEntities caps the final entity list. 0 means unlimited.
	MaxEntities int

	// EntityTypes restricts results to the given types. Empty means all.
	EntityTypes []string

	// Language is the explicit programming language for code extraction.
	// Empty means resolve from the file extension, then content heuristics.
	Language string

	Video VideoOptions
}

// DefaultOptions returns the extraction defaults used when the caller
// provides no configuration.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.5,
		MaxEntities:         50,
		Video: VideoOptions{
			MaxFrames:          30,
			MaxFramesToAnalyze: 5,
		},
	}
}

// filterEntities applies the threshold, type, and count filters in order.
func filterEntities(entities []types.Entity, opts Options) []types.Entity {
	filtered := make([]types.Entity, 0, len(entities))
	for _, e := range entities {
		if opts.ConfidenceThreshold > 0 && e.MaxRelevance() < opts.ConfidenceThreshold {
			continue
		}
		filtered = append(filtered, e)
	}

	if len(opts.EntityTypes) > 0 {
		allowed := make(map[string]bool, len(opts.EntityTypes))
		for _, t := range opts.EntityTypes {
			allowed[t] = true
		}
		kept := filtered[:0]
		for _, e := range filtered {
			if allowed[e.Type] {
				kept = append(kept, e)
			}
		}
		filtered = kept
	}

	if opts.MaxEntities > 0 && len(filtered) > opts.MaxEntities {
		filtered = filtered[:opts.MaxEntities]
	}

	return filtered
}
