// Package stabilizer waits for a candidate file to finish being written
// before it enters the pipeline.
package stabilizer

import (
	"context"
	"os"
	"time"
)

// PollStabilizer considers a file stable once its size has stayed constant
// for a configured number of consecutive polls.
type PollStabilizer struct {
	Interval time.Duration
	Checks   int
}

// New creates a polling stabilizer.
func New(interval time.Duration, checks int) *PollStabilizer {
	return &PollStabilizer{
		Interval: interval,
		Checks:   checks,
	}
}

// WaitForStable blocks until the file size stops changing or the context is
// canceled. A file that disappears mid-wait is an error.
func (s *PollStabilizer) WaitForStable(ctx context.Context, path string) error {
	var lastSize int64 = -1
	stableCount := 0

	for stableCount < s.Checks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Interval):
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		currentSize := info.Size()
		if currentSize == lastSize {
			stableCount++
		} else {
			stableCount = 0
			lastSize = currentSize
		}
	}

	return nil
}
