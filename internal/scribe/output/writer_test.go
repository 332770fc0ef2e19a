package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSidecarPaths(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		transcript string
		metadata   string
	}{
		{
			name:       "flac input",
			input:      "/audio/20251018_234813.flac",
			transcript: "/out/20251018_234813.txt",
			metadata:   "/out/20251018_234813_transcript_meta.json",
		},
		{
			name:       "upper case extension",
			input:      "/audio/REC.WAV",
			transcript: "/out/REC.txt",
			metadata:   "/out/REC_transcript_meta.json",
		},
		{
			name:       "dots in base name",
			input:      "/audio/meeting.v2.wav",
			transcript: "/out/meeting.v2.txt",
			metadata:   "/out/meeting.v2_transcript_meta.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TranscriptPath("/out", tt.input); got != tt.transcript {
				t.Errorf("TranscriptPath() = %q, want %q", got, tt.transcript)
			}
			if got := MetadataPath("/out", tt.input); got != tt.metadata {
				t.Errorf("MetadataPath() = %q, want %q", got, tt.metadata)
			}
		})
	}
}

func TestWriteTranscript(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	if w.TranscriptExists("/audio/rec.flac") {
		t.Fatal("TranscriptExists() = true before write")
	}

	path, err := w.WriteTranscript("/audio/rec.flac", "hello world")
	if err != nil {
		t.Fatalf("WriteTranscript() error = %v", err)
	}
	if path != filepath.Join(dir, "rec.txt") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("content = %q", data)
	}

	if !w.TranscriptExists("/audio/rec.flac") {
		t.Error("TranscriptExists() = false after write")
	}

	// No temp files left behind
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %q", e.Name())
		}
	}
}

func TestWriteTranscriptCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWriter(dir)

	if _, err := w.WriteTranscript("/audio/rec.flac", "x"); err != nil {
		t.Fatalf("WriteTranscript() error = %v", err)
	}
}

func TestWriteMetadata(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	raw := json.RawMessage(`{"text":"hi","segments":[{"speaker":0,"text":"hi"}]}`)
	path, err := w.WriteMetadata("/audio/rec.flac", raw)
	if err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}
	if path != filepath.Join(dir, "rec_transcript_meta.json") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}

	// Pretty-printed and still the same document
	if !strings.Contains(string(data), "\n  \"text\"") {
		t.Errorf("metadata not indented: %s", data)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("metadata not valid JSON: %v", err)
	}
	if doc["text"] != "hi" {
		t.Errorf("text = %v", doc["text"])
	}
}

func TestWriteMetadataRejectsInvalidJSON(t *testing.T) {
	w := NewWriter(t.TempDir())

	if _, err := w.WriteMetadata("/audio/rec.flac", json.RawMessage(`{broken`)); err == nil {
		t.Error("WriteMetadata() accepted invalid JSON")
	}
}
