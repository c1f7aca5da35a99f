package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/kbvault/ingestor/pkg/types"
)

// sceneChangeThreshold is the ffmpeg scene-detection score above which a
// frame counts as a scene change.
const sceneChangeThreshold = 0.3

// FFmpegTools implements Tools by shelling out to ffprobe and ffmpeg.
type FFmpegTools struct {
	// FFprobePath and FFmpegPath override the binaries resolved from PATH.
	FFprobePath string
	FFmpegPath  string

	// Timeout bounds each tool invocation. Default: 120s.
	Timeout time.Duration
}

// NewFFmpegTools creates an FFmpegTools with default binary names and timeout.
func NewFFmpegTools() *FFmpegTools {
	return &FFmpegTools{
		FFprobePath: "ffprobe",
		FFmpegPath:  "ffmpeg",
		Timeout:     120 * time.Second,
	}
}

// ffprobeOutput mirrors the JSON emitted by ffprobe -print_format json.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// Probe runs ffprobe and parses duration, stream presence, and codecs.
func (f *FFmpegTools) Probe(ctx context.Context, path string) (*Metadata, error) {
	out, err := f.run(ctx, f.FFprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	meta := &Metadata{}
	if probe.Format.Duration != "" {
		meta.Duration, err = strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q in ffprobe output: %w", probe.Format.Duration, err)
		}
	}
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			meta.HasVideo = true
			meta.VideoCodec = s.CodecName
		case "audio":
			meta.HasAudio = true
			meta.AudioCodec = s.CodecName
		}
	}
	return meta, nil
}

// ExtractFrames emits up to maxFrames JPEG frames using the given sampling
// strategy. Frame files are named frame_NNNN.jpg and returned sorted.
func (f *FFmpegTools) ExtractFrames(ctx context.Context, path, outDir, strategy string, maxFrames int) ([]string, error) {
	if maxFrames <= 0 {
		maxFrames = 1
	}
	pattern := filepath.Join(outDir, "frame_%04d.jpg")

	// Uniform sampling spreads maxFrames across the clip, so it needs the
	// probed duration to compute the frame interval.
	var interval float64
	if strategy != types.SamplingScene && strategy != types.SamplingKeyframe {
		meta, err := f.Probe(ctx, path)
		if err != nil {
			return nil, err
		}
		interval = meta.Duration / float64(maxFrames)
		if interval <= 0 {
			interval = 1
		}
	}

	args := frameArgs(strategy, path, pattern, maxFrames, interval)
	if _, err := f.run(ctx, f.FFmpegPath, args...); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed for %s: %w", path, err)
	}

	frames, err := filepath.Glob(filepath.Join(outDir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted frames: %w", err)
	}
	sort.Strings(frames)
	return frames, nil
}

// frameArgs builds the ffmpeg argument list for a sampling strategy.
// skip_frame is a decoder option and must precede -i to take effect;
// filters and the frame cap are output options and follow the input.
func frameArgs(strategy, path, pattern string, maxFrames int, interval float64) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	switch strategy {
	case types.SamplingScene:
		args = append(args, "-i", path, "-vf", fmt.Sprintf("select='gt(scene,%g)'", sceneChangeThreshold), "-vsync", "vfr")
	case types.SamplingKeyframe:
		args = append(args, "-skip_frame", "nokey", "-i", path, "-vsync", "vfr")
	default:
		args = append(args, "-i", path, "-vf", fmt.Sprintf("fps=1/%g", interval))
	}
	return append(args, "-frames:v", strconv.Itoa(maxFrames), pattern)
}

// ExtractAudio extracts the audio track as 16kHz mono WAV, the format
// transcription backends expect.
func (f *FFmpegTools) ExtractAudio(ctx context.Context, path, outPath string) (string, error) {
	_, err := f.run(ctx, f.FFmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outPath,
	)
	if err != nil {
		return "", fmt.Errorf("ffmpeg audio extraction failed for %s: %w", path, err)
	}
	return outPath, nil
}

// run executes a tool with the configured timeout, returning stdout.
// Stderr is folded into the error on nonzero exit.
func (f *FFmpegTools) run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	timeout := f.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%s: %w: %s", bin, err, stderr.String())
		}
		return nil, fmt.Errorf("%s: %w", bin, err)
	}
	return stdout.Bytes(), nil
}

// Compile-time assertion.
var _ Tools = (*FFmpegTools)(nil)
