// Package repair detects and fixes FLAC files whose container metadata
// carries no duration, a common artifact of recorders that crash before
// finalizing the stream header.
package repair

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"scribewatch/internal/scribe/ffmpeg"
	"scribewatch/internal/scribe/logging"
)

// Toolkit is the subset of the ffmpeg toolkit the probe needs.
type Toolkit interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	ReencodeLossless(ctx context.Context, src, dst string) error
}

// Probe decides whether a file's declared duration is trustworthy and
// re-encodes it when it is not.
type Probe struct {
	toolkit Toolkit
	logger  logging.Logger
}

// NewProbe creates a repair probe using the given toolkit.
func NewProbe(toolkit Toolkit, logger logging.Logger) *Probe {
	return &Probe{toolkit: toolkit, logger: logger}
}

// RepairIfNeeded returns a path whose metadata is safe to submit for
// transcription. Non-FLAC input is returned unchanged. When the duration
// probe comes back empty, the file is re-encoded losslessly to scratchPath
// and that copy is returned with repaired=true; the caller owns its cleanup.
// Re-encode failure falls back to the original file and is never fatal.
func (p *Probe) RepairIfNeeded(ctx context.Context, path, scratchPath string) (readyPath string, repaired bool) {
	if !strings.EqualFold(filepath.Ext(path), ".flac") {
		return path, false
	}

	dur, err := p.toolkit.ProbeDuration(ctx, path)
	if err == nil && dur > 0 {
		return path, false
	}
	if err != nil && !errors.Is(err, ffmpeg.ErrUnknownDuration) {
		// Probe itself failed; treat like missing metadata and try to repair.
		p.logger.Debug("duration probe failed, attempting repair",
			logging.String("path", path),
			logging.String("reason", err.Error()),
		)
	}

	p.logger.Info("metadata missing duration, re-encoding",
		logging.String("path", path),
		logging.String("scratch", scratchPath),
	)

	if err := p.toolkit.ReencodeLossless(ctx, path, scratchPath); err != nil {
		p.logger.Error("re-encode failed, using original file", err,
			logging.String("path", path),
		)
		return path, false
	}

	return scratchPath, true
}
