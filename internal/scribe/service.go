package scribe

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scribewatch/internal/scribe/client"
	"scribewatch/internal/scribe/ffmpeg"
	"scribewatch/internal/scribe/logging"
	"scribewatch/internal/scribe/output"
	"scribewatch/internal/scribe/processor"
	"scribewatch/internal/scribe/repair"
	"scribewatch/internal/scribe/scanner"
	"scribewatch/internal/scribe/scratch"
	"scribewatch/internal/scribe/speech"
	"scribewatch/internal/scribe/stabilizer"
)

// FileProcessor runs one candidate through the pipeline.
type FileProcessor interface {
	Process(ctx context.Context, path string) processor.Outcome
}

// Stabilizer waits for a file to finish being written.
type Stabilizer interface {
	WaitForStable(ctx context.Context, path string) error
}

// Scanner lists candidate files.
type Scanner interface {
	Scan() ([]scanner.Candidate, error)
}

// Summary aggregates one scan's outcomes.
type Summary struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
}

// Service drives the scan loop: list candidates, process them one at a
// time in sorted order, then wait out the configured interval and repeat.
// Strictly single-threaded; the serialization respects remote rate limits
// and bounds scratch usage to one file at a time.
type Service struct {
	config     *Config
	logger     *logging.FileLogger
	scanner    Scanner
	stabilizer Stabilizer
	processor  FileProcessor
	scratch    *scratch.Area
}

// NewService wires up all pipeline components from the configuration.
func NewService(cfg *Config, logConfig logging.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logConfig.Component = "service"
	logger, err := logging.New(logConfig)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	toolkit := ffmpeg.New()
	area := scratch.New(cfg.ScratchDir)
	writer := output.NewWriter(cfg.OutputDir)

	proc := processor.New(
		writer,
		speech.NewDetector(toolkit, logger.WithComponent("speech")),
		repair.NewProbe(toolkit, logger.WithComponent("repair")),
		client.New(cfg.APIKey, client.WithBaseURL(cfg.APIBase)),
		area,
		logger.WithComponent("processor"),
		processor.Options{
			Model:   cfg.Model,
			Diarize: cfg.Diarize,
			AutoFix: cfg.AutoFix,
		},
	)

	return &Service{
		config:     cfg,
		logger:     logger,
		scanner:    scanner.New(cfg.AudioDir, cfg.Extensions),
		stabilizer: stabilizer.New(time.Duration(cfg.StabilizeIntervalMs)*time.Millisecond, cfg.StabilizeChecks),
		processor:  proc,
		scratch:    area,
	}, nil
}

// Run executes the scan loop until the context is canceled or an interrupt
// arrives. In-flight per-file work is never aborted mid-call; cancellation
// takes effect at file boundaries. The scratch directory is purged on the
// way out.
func (s *Service) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info("received signal, shutting down", logging.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := s.scratch.Ensure(); err != nil {
		return err
	}

	s.logger.Info("starting transcription watch",
		logging.String("audio_dir", s.config.AudioDir),
		logging.String("output_dir", s.config.OutputDir),
		logging.String("model", s.config.Model),
		logging.Duration("scan_interval", s.config.ScanInterval),
	)

	for {
		s.runScan(ctx)

		select {
		case <-ctx.Done():
			return s.shutdown()
		case <-time.After(s.config.ScanInterval):
		}
	}
}

// runScan processes every candidate found by one directory listing. A failed
// file never stops the scan.
func (s *Service) runScan(ctx context.Context) Summary {
	var summary Summary

	candidates, err := s.scanner.Scan()
	if err != nil {
		s.logger.Error("scan failed", err)
		return summary
	}
	summary.Total = len(candidates)

	maxSize := int64(s.config.MaxFileSizeMB) * 1024 * 1024

	for i, candidate := range candidates {
		if ctx.Err() != nil {
			summary.Total = i
			break
		}

		if candidate.Size > maxSize {
			s.logger.Info("file too large, skipping",
				logging.String("path", candidate.Path),
				logging.Int64("size", candidate.Size),
				logging.Int64("max_size", maxSize),
			)
			summary.Skipped++
			continue
		}

		if err := s.stabilizer.WaitForStable(ctx, candidate.Path); err != nil {
			if ctx.Err() != nil {
				summary.Total = i
				break
			}
			s.logger.Error("stabilization failed", err, logging.String("path", candidate.Path))
			summary.Failed++
			continue
		}

		// A file that has started is allowed to finish: the per-file context
		// never carries the loop's cancellation, so an in-flight upload is
		// not aborted and its results are not discarded. Cancellation takes
		// hold at the boundary checks above.
		outcome := s.processor.Process(context.WithoutCancel(ctx), candidate.Path)
		switch outcome.Kind {
		case processor.OutcomeProcessed:
			summary.Processed++
		case processor.OutcomeSkipped:
			summary.Skipped++
		case processor.OutcomeFailed:
			summary.Failed++
		}

		// Throttle between files; no pause after the last one.
		if i < len(candidates)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(s.config.FilePause):
			}
		}
	}

	s.logger.Info("scan complete",
		logging.Int("total", summary.Total),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
	)

	return summary
}

// shutdown purges the scratch directory and closes the logger.
func (s *Service) shutdown() error {
	if err := s.scratch.Purge(); err != nil {
		s.logger.Error("failed to purge scratch directory", err)
	}
	s.logger.Info("transcription watch stopped")
	return s.logger.Close()
}
