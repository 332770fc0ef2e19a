package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "20251018_234813.flac")
	if err := os.WriteFile(path, []byte("fLaC-not-really"), 0644); err != nil {
		t.Fatalf("write test audio: %v", err)
	}
	return path
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := New("sk-test")
		if c.baseURL != DefaultBaseURL {
			t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
		}
		if c.httpClient.Timeout != DefaultTimeout {
			t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
		}
	})

	t.Run("with base URL trims slash", func(t *testing.T) {
		c := New("sk-test", WithBaseURL("http://localhost:9000/v1/"))
		if c.baseURL != "http://localhost:9000/v1" {
			t.Errorf("baseURL = %q", c.baseURL)
		}
	})

	t.Run("with timeout", func(t *testing.T) {
		c := New("sk-test", WithTimeout(30*time.Second))
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("timeout = %v, want 30s", c.httpClient.Timeout)
		}
	})
}

func TestTranscribe_StandardMode(t *testing.T) {
	audio := writeTestAudio(t)

	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		form = r.MultipartForm.Value
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"text":"Hello there.","duration":3.2}`))
	}))
	defer server.Close()

	c := New("sk-test", WithBaseURL(server.URL))
	result, err := c.Transcribe(context.Background(), audio, TranscribeOptions{Model: "whisper-1"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if result.Text != "Hello there." {
		t.Errorf("Text = %q", result.Text)
	}
	if !strings.Contains(string(result.Raw), `"duration":3.2`) {
		t.Errorf("Raw missing original body: %s", result.Raw)
	}

	if got := form["model"]; len(got) != 1 || got[0] != "whisper-1" {
		t.Errorf("model field = %v", got)
	}
	if got := form["response_format"]; len(got) != 1 || got[0] != "verbose_json" {
		t.Errorf("response_format field = %v", got)
	}
	if got := form["timestamp_granularities[]"]; len(got) != 2 || got[0] != "word" || got[1] != "segment" {
		t.Errorf("timestamp_granularities[] = %v, want [word segment]", got)
	}
	if _, ok := form["chunking_strategy"]; ok {
		t.Error("chunking_strategy sent in standard mode")
	}
}

func TestTranscribe_NonBaselineModelOmitsGranularities(t *testing.T) {
	audio := writeTestAudio(t)

	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		form = r.MultipartForm.Value
		w.Write([]byte(`{"text":"hi"}`))
	}))
	defer server.Close()

	c := New("sk-test", WithBaseURL(server.URL))
	if _, err := c.Transcribe(context.Background(), audio, TranscribeOptions{Model: "gpt-4o-transcribe"}); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if _, ok := form["timestamp_granularities[]"]; ok {
		t.Errorf("timestamp_granularities[] sent for non-baseline model: %v", form)
	}
	if got := form["model"]; len(got) != 1 || got[0] != "gpt-4o-transcribe" {
		t.Errorf("model field = %v", got)
	}
}

func TestTranscribe_DiarizedMode(t *testing.T) {
	audio := writeTestAudio(t)

	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		form = r.MultipartForm.Value
		w.Write([]byte(`{"segments":[{"type":"transcript.text.segment","speaker":0,"text":"Hi"},{"type":"transcript.text.segment","speaker":1,"text":"Bye"}]}`))
	}))
	defer server.Close()

	c := New("sk-test", WithBaseURL(server.URL))
	result, err := c.Transcribe(context.Background(), audio, TranscribeOptions{Model: "whisper-1", Diarize: true})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if result.Text != "[Speaker 0] Hi [Speaker 1] Bye" {
		t.Errorf("Text = %q, want %q", result.Text, "[Speaker 0] Hi [Speaker 1] Bye")
	}

	// Configured model is ignored in diarized mode.
	if got := form["model"]; len(got) != 1 || got[0] != DiarizedModel {
		t.Errorf("model field = %v, want %q", got, DiarizedModel)
	}
	if got := form["response_format"]; len(got) != 1 || got[0] != "diarized_json" {
		t.Errorf("response_format field = %v", got)
	}
	if got := form["chunking_strategy"]; len(got) != 1 || got[0] != "auto" {
		t.Errorf("chunking_strategy field = %v", got)
	}
	if _, ok := form["timestamp_granularities[]"]; ok {
		t.Error("timestamp_granularities[] sent in diarized mode")
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		diarized bool
		wantText string
		wantErr  string
	}{
		{
			name:     "standard text",
			body:     `{"text":"hello"}`,
			status:   200,
			wantText: "hello",
		},
		{
			name:    "provider error surfaced verbatim",
			body:    `{"error":{"message":"Invalid file format."}}`,
			status:  400,
			wantErr: "Invalid file format.",
		},
		{
			name:    "http error without error object",
			body:    `upstream unavailable`,
			status:  503,
			wantErr: "status 503",
		},
		{
			name:    "empty text",
			body:    `{"text":""}`,
			status:  200,
			wantErr: "no text content",
		},
		{
			name:    "null text",
			body:    `{"text":null}`,
			status:  200,
			wantErr: "no text content",
		},
		{
			name:     "diarized speaker missing defaults to Unknown",
			body:     `{"segments":[{"text":"Hi"}]}`,
			status:   200,
			diarized: true,
			wantText: "[Speaker Unknown] Hi",
		},
		{
			name:     "diarized string speaker ids",
			body:     `{"segments":[{"speaker":"A","text":"Hi"},{"speaker":"B","text":"Bye"}]}`,
			status:   200,
			diarized: true,
			wantText: "[Speaker A] Hi [Speaker B] Bye",
		},
		{
			name:     "diarized without segments falls back to text",
			body:     `{"text":"plain"}`,
			status:   200,
			diarized: true,
			wantText: "plain",
		},
		{
			name:     "diarized without segments falls back to transcript alias",
			body:     `{"transcript":"aliased"}`,
			status:   200,
			diarized: true,
			wantText: "aliased",
		},
		{
			name:     "diarized with nothing usable",
			body:     `{}`,
			status:   200,
			diarized: true,
			wantErr:  "no text content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseResponse([]byte(tt.body), tt.status, tt.diarized)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("parseResponse() = %+v, want error containing %q", result, tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResponse() error = %v", err)
			}
			if result.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", result.Text, tt.wantText)
			}
			if string(result.Raw) != tt.body {
				t.Errorf("Raw = %s, want original body", result.Raw)
			}
		})
	}
}
