package scribe

import (
	"context"
	"strings"
	"testing"
	"time"

	"scribewatch/internal/scribe/logging"
	"scribewatch/internal/scribe/processor"
	"scribewatch/internal/scribe/scanner"
	"scribewatch/internal/scribe/scratch"
)

type fakeScanner struct {
	candidates []scanner.Candidate
	err        error
}

func (f *fakeScanner) Scan() ([]scanner.Candidate, error) {
	return f.candidates, f.err
}

type fakeStabilizer struct{}

func (fakeStabilizer) WaitForStable(ctx context.Context, path string) error {
	return ctx.Err()
}

type fakeProcessor struct {
	outcomes map[string]processor.Outcome
	order    []string
}

func (f *fakeProcessor) Process(ctx context.Context, path string) processor.Outcome {
	f.order = append(f.order, path)
	if o, ok := f.outcomes[path]; ok {
		return o
	}
	return processor.Processed(path+".txt", path+"_transcript_meta.json")
}

func testLogger(t *testing.T) *logging.FileLogger {
	t.Helper()
	logger, err := logging.New(logging.Config{LogDir: t.TempDir()})
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func newTestService(t *testing.T, sc Scanner, proc FileProcessor) *Service {
	t.Helper()
	return &Service{
		config: &Config{
			MaxFileSizeMB: 100,
			FilePause:     time.Millisecond,
		},
		logger:     testLogger(t),
		scanner:    sc,
		stabilizer: fakeStabilizer{},
		processor:  proc,
		scratch:    scratch.New(t.TempDir()),
	}
}

func candidates(paths ...string) []scanner.Candidate {
	out := make([]scanner.Candidate, 0, len(paths))
	for _, p := range paths {
		out = append(out, scanner.Candidate{Path: p, Size: 1024})
	}
	return out
}

func TestRunScan_BatchResilience(t *testing.T) {
	sc := &fakeScanner{candidates: candidates("/a/1.flac", "/a/2.flac", "/a/3.flac", "/a/4.flac")}
	proc := &fakeProcessor{outcomes: map[string]processor.Outcome{
		"/a/1.flac": processor.Skipped("already processed"),
		"/a/2.flac": processor.Failed("transcribe: provider error"),
	}}
	svc := newTestService(t, sc, proc)

	summary := svc.runScan(context.Background())

	if summary.Total != 4 {
		t.Errorf("Total = %d, want 4", summary.Total)
	}
	if summary.Processed != 2 || summary.Skipped != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Processed+summary.Skipped+summary.Failed != summary.Total {
		t.Errorf("counts do not add up: %+v", summary)
	}

	// Failure on file 2 must not stop files 3 and 4
	want := []string{"/a/1.flac", "/a/2.flac", "/a/3.flac", "/a/4.flac"}
	if strings.Join(proc.order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", proc.order, want)
	}
}

func TestRunScan_OversizedFileSkipped(t *testing.T) {
	sc := &fakeScanner{candidates: []scanner.Candidate{
		{Path: "/a/huge.flac", Size: 200 * 1024 * 1024},
		{Path: "/a/ok.flac", Size: 1024},
	}}
	proc := &fakeProcessor{}
	svc := newTestService(t, sc, proc)

	summary := svc.runScan(context.Background())

	if summary.Skipped != 1 || summary.Processed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(proc.order) != 1 || proc.order[0] != "/a/ok.flac" {
		t.Errorf("processed %v, want only the small file", proc.order)
	}
}

func TestRunScan_ScanErrorReturnsEmptySummary(t *testing.T) {
	sc := &fakeScanner{err: context.DeadlineExceeded}
	proc := &fakeProcessor{}
	svc := newTestService(t, sc, proc)

	summary := svc.runScan(context.Background())
	if summary.Total != 0 || len(proc.order) != 0 {
		t.Errorf("scan error still processed files: %+v %v", summary, proc.order)
	}
}

func TestRunScan_CancellationStopsAtFileBoundary(t *testing.T) {
	sc := &fakeScanner{candidates: candidates("/a/1.flac", "/a/2.flac", "/a/3.flac")}

	ctx, cancel := context.WithCancel(context.Background())
	proc := &cancelingProcessor{cancel: cancel}
	svc := newTestService(t, sc, proc)

	summary := svc.runScan(ctx)

	// The in-flight file completes; no new file starts after cancel.
	if len(proc.order) != 1 {
		t.Fatalf("processed %d files after cancel, want 1", len(proc.order))
	}
	if summary.Processed != 1 || summary.Total != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

type cancelingProcessor struct {
	cancel    context.CancelFunc
	order     []string
	sawCancel bool
}

func (c *cancelingProcessor) Process(ctx context.Context, path string) processor.Outcome {
	c.order = append(c.order, path)
	c.cancel()
	if ctx.Err() != nil {
		c.sawCancel = true
	}
	return processor.Processed(path+".txt", "")
}

func TestRunScan_InFlightFileNotCanceledMidCall(t *testing.T) {
	sc := &fakeScanner{candidates: candidates("/a/1.flac", "/a/2.flac")}

	ctx, cancel := context.WithCancel(context.Background())
	proc := &cancelingProcessor{cancel: cancel}
	svc := newTestService(t, sc, proc)

	svc.runScan(ctx)

	// Canceling the scan context while a file is being processed must not
	// propagate into that file's context; an upload in progress would
	// otherwise be aborted and its result thrown away.
	if proc.sawCancel {
		t.Error("per-file context canceled while the file was in flight")
	}
}
