// Package processor runs one candidate file through the pipeline: dedup,
// speech gate, repair, transcription, persistence, scratch cleanup.
package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"scribewatch/internal/scribe/client"
	"scribewatch/internal/scribe/logging"
	"scribewatch/internal/scribe/output"
)

// OutcomeKind tags the result of processing one file.
type OutcomeKind int

const (
	OutcomeSkipped OutcomeKind = iota
	OutcomeProcessed
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeProcessed:
		return "processed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-file processing result.
type Outcome struct {
	Kind           OutcomeKind
	Reason         string
	TranscriptPath string
	MetadataPath   string
}

// Skipped builds a skip outcome.
func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Processed builds a success outcome. metadataPath is empty for
// silence placeholders.
func Processed(transcriptPath, metadataPath string) Outcome {
	return Outcome{Kind: OutcomeProcessed, TranscriptPath: transcriptPath, MetadataPath: metadataPath}
}

// Failed builds a failure outcome. The file stays eligible for the next scan
// because no transcript marker was written.
func Failed(reason string) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}

// SpeechDetector gates files before the paid remote call.
type SpeechDetector interface {
	HasSpeech(ctx context.Context, path string) bool
}

// Repairer returns a path safe to submit, re-encoding to scratchPath when
// the source metadata is corrupted.
type Repairer interface {
	RepairIfNeeded(ctx context.Context, path, scratchPath string) (readyPath string, repaired bool)
}

// Transcriber submits audio to the remote service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts client.TranscribeOptions) (*client.Result, error)
}

// ScratchArea allocates and removes temporary repaired copies.
type ScratchArea interface {
	PathFor(src string) string
	Remove(path string) error
}

// SidecarWriter persists transcript and metadata outputs.
type SidecarWriter interface {
	TranscriptExists(inputPath string) bool
	WriteTranscript(inputPath, text string) (string, error)
	WriteMetadata(inputPath string, raw json.RawMessage) (string, error)
}

// Options carry the per-run settings the processor needs.
type Options struct {
	Model   string
	Diarize bool
	AutoFix bool
}

// Processor handles a single file at a time.
type Processor struct {
	writer      SidecarWriter
	speech      SpeechDetector
	repair      Repairer
	transcriber Transcriber
	scratch     ScratchArea
	logger      logging.Logger
	opts        Options
}

// New creates a Processor.
func New(writer SidecarWriter, speech SpeechDetector, repair Repairer, transcriber Transcriber, scratch ScratchArea, logger logging.Logger, opts Options) *Processor {
	return &Processor{
		writer:      writer,
		speech:      speech,
		repair:      repair,
		transcriber: transcriber,
		scratch:     scratch,
		logger:      logger,
		opts:        opts,
	}
}

// Process runs the full pipeline for one candidate. A failure never aborts
// the batch; the caller records the outcome and moves on. Any scratch copy
// created here is removed before returning, on every path.
func (p *Processor) Process(ctx context.Context, path string) Outcome {
	if p.writer.TranscriptExists(path) {
		p.logger.Debug("already processed", logging.String("path", path))
		return Skipped("already processed")
	}

	if !p.speech.HasSpeech(ctx, path) {
		transcriptPath, err := p.writer.WriteTranscript(path, output.SilencePlaceholder)
		if err != nil {
			p.logger.Error("failed to write silence placeholder", err, logging.String("path", path))
			return Failed(fmt.Sprintf("write placeholder: %v", err))
		}
		p.logger.Info("no speech detected, placeholder written",
			logging.String("path", path),
			logging.String("output", transcriptPath),
		)
		return Processed(transcriptPath, "")
	}

	readyPath := path
	repaired := false
	if p.opts.AutoFix {
		readyPath, repaired = p.repair.RepairIfNeeded(ctx, path, p.scratch.PathFor(path))
	}
	defer func() {
		if repaired {
			if err := p.scratch.Remove(readyPath); err != nil {
				p.logger.Error("failed to remove scratch copy", err, logging.String("path", readyPath))
			}
		}
	}()

	result, err := p.transcriber.Transcribe(ctx, readyPath, client.TranscribeOptions{
		Model:   p.opts.Model,
		Diarize: p.opts.Diarize,
	})
	if err != nil {
		p.logger.Error("transcription failed", err, logging.String("path", path))
		return Failed(fmt.Sprintf("transcribe: %v", err))
	}

	transcriptPath, err := p.writer.WriteTranscript(path, result.Text)
	if err != nil {
		p.logger.Error("failed to write transcript", err, logging.String("path", path))
		return Failed(fmt.Sprintf("write transcript: %v", err))
	}

	metadataPath, err := p.writer.WriteMetadata(path, result.Raw)
	if err != nil {
		p.logger.Error("failed to write metadata", err, logging.String("path", path))
		return Failed(fmt.Sprintf("write metadata: %v", err))
	}

	p.logger.Info("file processed",
		logging.String("path", path),
		logging.String("transcript", transcriptPath),
		logging.String("metadata", metadataPath),
	)

	return Processed(transcriptPath, metadataPath)
}
