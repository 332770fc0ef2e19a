// Package ffmpeg invokes the ffmpeg and ffprobe binaries for audio analysis
// and repair.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Runner executes an external command and returns its stdout and stderr.
// The production implementation shells out; tests substitute canned output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ErrUnknownDuration indicates the container metadata carries no usable
// duration, which for FLAC means the STREAMINFO header is corrupted.
var ErrUnknownDuration = errors.New("duration not reported")

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command and captures stdout and stderr separately.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Loudness holds the volumedetect measurements for a whole file.
type Loudness struct {
	MeanDB float64
	PeakDB float64
}

// SilenceInterval is one silent stretch reported by silencedetect.
type SilenceInterval struct {
	Start    time.Duration
	End      time.Duration
	Duration time.Duration
}

// Toolkit wraps ffmpeg/ffprobe behind typed operations.
type Toolkit struct {
	runner      Runner
	ffmpegPath  string
	ffprobePath string
}

// Option configures the Toolkit.
type Option func(*Toolkit)

// WithRunner sets a custom command runner.
func WithRunner(r Runner) Option {
	return func(t *Toolkit) {
		t.runner = r
	}
}

// WithBinaries sets custom ffmpeg and ffprobe paths.
func WithBinaries(ffmpegPath, ffprobePath string) Option {
	return func(t *Toolkit) {
		t.ffmpegPath = ffmpegPath
		t.ffprobePath = ffprobePath
	}
}

// New creates a Toolkit that invokes ffmpeg and ffprobe from PATH.
func New(opts ...Option) *Toolkit {
	t := &Toolkit{
		runner:      ExecRunner{},
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ProbeDuration returns the duration reported by the container metadata.
// Returns ErrUnknownDuration when ffprobe prints nothing or "N/A".
func (t *Toolkit) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	stdout, _, err := t.runner.Run(ctx, t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	raw := strings.TrimSpace(stdout)
	if raw == "" || raw == "N/A" {
		return 0, ErrUnknownDuration
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// ReencodeLossless rewrites src to dst as FLAC, regenerating the container
// metadata in the process. The audio stream is re-encoded losslessly.
func (t *Toolkit) ReencodeLossless(ctx context.Context, src, dst string) error {
	_, stderr, err := t.runner.Run(ctx, t.ffmpegPath,
		"-y",
		"-i", src,
		"-c:a", "flac",
		dst,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg re-encode: %w: %s", err, lastLine(stderr))
	}
	return nil
}

var (
	meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?[0-9.]+)\s*dB`)
	maxVolumeRe  = regexp.MustCompile(`max_volume:\s*(-?[0-9.]+)\s*dB`)
	silenceEndRe = regexp.MustCompile(`silence_end:\s*([0-9.]+)\s*\|\s*silence_duration:\s*([0-9.]+)`)
)

// MeasureLoudness runs the volumedetect filter across the whole file and
// returns the mean and peak volume in dB.
func (t *Toolkit) MeasureLoudness(ctx context.Context, path string) (Loudness, error) {
	// volumedetect reports on stderr
	_, stderr, err := t.runner.Run(ctx, t.ffmpegPath,
		"-i", path,
		"-af", "volumedetect",
		"-f", "null", "-",
	)
	if err != nil {
		return Loudness{}, fmt.Errorf("ffmpeg volumedetect: %w", err)
	}

	mean := meanVolumeRe.FindStringSubmatch(stderr)
	peak := maxVolumeRe.FindStringSubmatch(stderr)
	if mean == nil || peak == nil {
		return Loudness{}, fmt.Errorf("volumedetect output missing volume lines")
	}

	meanDB, err := strconv.ParseFloat(mean[1], 64)
	if err != nil {
		return Loudness{}, fmt.Errorf("parse mean_volume: %w", err)
	}
	peakDB, err := strconv.ParseFloat(peak[1], 64)
	if err != nil {
		return Loudness{}, fmt.Errorf("parse max_volume: %w", err)
	}

	return Loudness{MeanDB: meanDB, PeakDB: peakDB}, nil
}

// DetectSilence runs the silencedetect filter with the given noise floor and
// minimum interval length, returning every silent stretch found.
func (t *Toolkit) DetectSilence(ctx context.Context, path string, noiseFloorDB float64, minInterval time.Duration) ([]SilenceInterval, error) {
	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", noiseFloorDB, minInterval.Seconds())
	_, stderr, err := t.runner.Run(ctx, t.ffmpegPath,
		"-i", path,
		"-af", filter,
		"-f", "null", "-",
	)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg silencedetect: %w", err)
	}

	var intervals []SilenceInterval
	for _, match := range silenceEndRe.FindAllStringSubmatch(stderr, -1) {
		end, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		dur, err := strconv.ParseFloat(match[2], 64)
		if err != nil {
			continue
		}
		interval := SilenceInterval{
			End:      time.Duration(end * float64(time.Second)),
			Duration: time.Duration(dur * float64(time.Second)),
		}
		interval.Start = interval.End - interval.Duration
		intervals = append(intervals, interval)
	}

	return intervals, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
