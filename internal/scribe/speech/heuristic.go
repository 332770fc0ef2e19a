// Package speech implements the cheap local heuristic that decides whether a
// recording is worth a paid transcription call.
package speech

import (
	"context"
	"time"

	"scribewatch/internal/scribe/ffmpeg"
	"scribewatch/internal/scribe/logging"
)

// Gate thresholds. A recording failing any gate is classified as silent.
const (
	// MinDuration is the shortest recording considered meaningful.
	MinDuration = 2 * time.Second
	// MinMeanVolumeDB and MinPeakVolumeDB bound near-total silence.
	MinMeanVolumeDB = -50.0
	MinPeakVolumeDB = -35.0
	// Silence-ratio gate parameters.
	SilenceNoiseFloorDB = -40.0
	MinSilenceInterval  = 1 * time.Second
	MaxSilenceRatio     = 0.80
)

// Toolkit is the subset of the ffmpeg toolkit the detector needs.
type Toolkit interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	MeasureLoudness(ctx context.Context, path string) (ffmpeg.Loudness, error)
	DetectSilence(ctx context.Context, path string, noiseFloorDB float64, minInterval time.Duration) ([]ffmpeg.SilenceInterval, error)
}

// Detector classifies recordings as speech or silence.
type Detector struct {
	toolkit Toolkit
	logger  logging.Logger
}

// NewDetector creates a speech detector using the given toolkit.
func NewDetector(toolkit Toolkit, logger logging.Logger) *Detector {
	return &Detector{toolkit: toolkit, logger: logger}
}

// HasSpeech reports whether the recording likely contains meaningful speech.
// Each gate that cannot produce a usable measurement is skipped rather than
// treated as a verdict, so total tool failure fails open: a file that might
// matter is never dropped on the strength of a broken probe.
func (d *Detector) HasSpeech(ctx context.Context, path string) bool {
	total, durErr := d.toolkit.ProbeDuration(ctx, path)
	if durErr == nil && total < MinDuration {
		d.logger.Info("too short for speech",
			logging.String("path", path),
			logging.Duration("duration", total),
		)
		return false
	}
	if durErr != nil {
		d.logger.Debug("duration gate skipped",
			logging.String("path", path),
			logging.String("reason", durErr.Error()),
		)
	}

	loudness, err := d.toolkit.MeasureLoudness(ctx, path)
	if err == nil {
		if loudness.MeanDB < MinMeanVolumeDB || loudness.PeakDB < MinPeakVolumeDB {
			d.logger.Info("volume below speech threshold",
				logging.String("path", path),
				logging.Float64("mean_db", loudness.MeanDB),
				logging.Float64("peak_db", loudness.PeakDB),
			)
			return false
		}
	} else {
		d.logger.Debug("volume gate skipped",
			logging.String("path", path),
			logging.String("reason", err.Error()),
		)
	}

	// The ratio gate needs a total duration to compare against.
	if durErr == nil && total > 0 {
		intervals, err := d.toolkit.DetectSilence(ctx, path, SilenceNoiseFloorDB, MinSilenceInterval)
		if err == nil {
			var silent time.Duration
			for _, iv := range intervals {
				silent += iv.Duration
			}
			ratio := float64(silent) / float64(total)
			if ratio > MaxSilenceRatio {
				d.logger.Info("mostly silence",
					logging.String("path", path),
					logging.Float64("silence_ratio", ratio),
				)
				return false
			}
		} else {
			d.logger.Debug("silence gate skipped",
				logging.String("path", path),
				logging.String("reason", err.Error()),
			)
		}
	}

	return true
}
