// Package client provides the remote speech-to-text API client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBaseURL is the OpenAI-compatible API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// DiarizedModel is the fixed model used for speaker-attributed transcription.
const DiarizedModel = "gpt-4o-transcribe-diarize"

// BaselineModel is the only model that accepts timestamp granularity
// parameters; other models reject them.
const BaselineModel = "whisper-1"

// DefaultTimeout is the default HTTP request timeout. Uploads of long
// recordings can take a while.
const DefaultTimeout = 10 * time.Minute

// TranscribeOptions configures the transcription request.
type TranscribeOptions struct {
	Model   string
	Diarize bool
}

// Result contains the extracted transcript text and the raw response
// document, which is persisted verbatim as the metadata sidecar.
type Result struct {
	Text string
	Raw  json.RawMessage
}

// Client sends audio to the transcription endpoint. One request per call,
// no retries; a failure is the caller's to handle.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for a compatible self-hosted
// endpoint or a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a transcription client authenticating with the given key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Transcribe uploads the audio file and returns the extracted transcript.
func (c *Client) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writeFields(writer, opts); err != nil {
		return nil, err
	}

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseResponse(body, resp.StatusCode, opts.Diarize)
}

// writeFields emits the request parameters for the configured mode.
func writeFields(writer *multipart.Writer, opts TranscribeOptions) error {
	fields := [][2]string{}

	if opts.Diarize {
		fields = append(fields,
			[2]string{"model", DiarizedModel},
			[2]string{"response_format", "diarized_json"},
			[2]string{"chunking_strategy", "auto"},
		)
	} else {
		fields = append(fields,
			[2]string{"model", opts.Model},
			[2]string{"response_format", "verbose_json"},
		)
		// Only the baseline model understands granularity parameters.
		if opts.Model == BaselineModel {
			fields = append(fields,
				[2]string{"timestamp_granularities[]", "word"},
				[2]string{"timestamp_granularities[]", "segment"},
			)
		}
	}

	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	return nil
}

type apiError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type diarizedSegment struct {
	Speaker *json.RawMessage `json:"speaker"`
	Text    string           `json:"text"`
}

type transcriptionResponse struct {
	Text       *string           `json:"text"`
	Transcript *string           `json:"transcript"`
	Segments   []diarizedSegment `json:"segments"`
}

func parseResponse(body []byte, statusCode int, diarized bool) (*Result, error) {
	// The provider reports failures in the body; surface its message verbatim.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
		return nil, fmt.Errorf("provider error: %s", apiErr.Error.Message)
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: status %d: %s", statusCode, string(body))
	}

	var resp transcriptionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	var text string
	switch {
	case diarized && len(resp.Segments) > 0:
		text = joinSegments(resp.Segments)
	case diarized && resp.Text == nil && resp.Transcript != nil:
		text = *resp.Transcript
	case resp.Text != nil:
		text = *resp.Text
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text content")
	}

	return &Result{
		Text: text,
		Raw:  json.RawMessage(body),
	}, nil
}

// joinSegments renders speaker-tagged segments as one line of text:
// [Speaker 0] Hi [Speaker 1] Bye
func joinSegments(segments []diarizedSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, fmt.Sprintf("[Speaker %s] %s", speakerLabel(seg.Speaker), seg.Text))
	}
	return strings.Join(parts, " ")
}

// speakerLabel renders the speaker identifier, which the provider may emit
// as either a string or a number.
func speakerLabel(raw *json.RawMessage) string {
	if raw == nil {
		return "Unknown"
	}

	var s string
	if err := json.Unmarshal(*raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(*raw), `"`)
}
