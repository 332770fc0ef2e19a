// Package scanner lists candidate audio files in the watched directory.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Candidate is a file discovered by a scan.
type Candidate struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Scanner discovers audio files by extension.
type Scanner struct {
	dir  string
	exts map[string]struct{}
}

// New creates a Scanner for dir matching the given extensions. Extensions
// are matched case-insensitively and may be given with or without the dot.
func New(dir string, extensions []string) *Scanner {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}
	return &Scanner{dir: dir, exts: exts}
}

// Scan returns the matching files directly under the watched directory in
// lexicographic order. Subdirectories are not descended into.
func (s *Scanner) Scan() ([]Candidate, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read audio directory: %w", err)
	}

	var candidates []Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !s.matches(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// File vanished between listing and stat; it will be picked up
			// next scan if it reappears.
			continue
		}

		candidates = append(candidates, Candidate{
			Path:    filepath.Join(s.dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return candidates, nil
}

func (s *Scanner) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := s.exts[ext]
	return ok
}
