// Package output writes the transcript and metadata sidecar files and
// exposes the naming contract the idempotency check depends on.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SilencePlaceholder is written as the transcript body for recordings the
// speech heuristic classified as silent. Its presence marks the file as
// processed just like a real transcript does.
const SilencePlaceholder = "[no speech detected]"

// MetadataSuffix is appended to the input base name for the metadata sidecar.
const MetadataSuffix = "_transcript_meta.json"

// TranscriptPath derives the transcript sidecar path for an input file.
// The extension is replaced with .txt and the file lands in outputDir.
func TranscriptPath(outputDir, inputPath string) string {
	return filepath.Join(outputDir, baseName(inputPath)+".txt")
}

// MetadataPath derives the metadata sidecar path for an input file.
func MetadataPath(outputDir, inputPath string) string {
	return filepath.Join(outputDir, baseName(inputPath)+MetadataSuffix)
}

func baseName(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Writer persists transcription results as sidecar files.
type Writer struct {
	outputDir string
}

// NewWriter creates a Writer targeting outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// TranscriptExists reports whether the transcript sidecar for inputPath is
// already present. This is the pipeline's sole idempotency marker.
func (w *Writer) TranscriptExists(inputPath string) bool {
	_, err := os.Stat(TranscriptPath(w.outputDir, inputPath))
	return err == nil
}

// WriteTranscript writes the transcript text for inputPath and returns the
// written path. The content goes through a temp file and rename so a crash
// mid-write cannot leave a partial marker behind.
func (w *Writer) WriteTranscript(inputPath, text string) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := TranscriptPath(w.outputDir, inputPath)
	if err := writeAtomic(path, []byte(text)); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

// WriteMetadata persists the raw API response, pretty-printed, and returns
// the written path.
func (w *Writer) WriteMetadata(inputPath string, raw json.RawMessage) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return "", fmt.Errorf("format metadata: %w", err)
	}
	pretty.WriteString("\n")

	path := MetadataPath(w.outputDir, inputPath)
	if err := writeAtomic(path, pretty.Bytes()); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	return path, nil
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
