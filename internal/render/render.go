// Package render turns metadata sidecar JSON into a readable transcript and
// locates sidecars by the timestamp embedded in their filenames.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// filenames carry a recording timestamp like 20251018_234813
var stampRe = regexp.MustCompile(`(\d{8})_(\d{6})`)

const stampLayout = "20060102150405"

// TimestampFromName extracts the recording timestamp embedded in a filename.
func TimestampFromName(name string) (time.Time, bool) {
	m := stampRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(stampLayout, m[1]+m[2], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// FormatOffset renders a segment start offset as MM:SS.
func FormatOffset(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

type metaSegment struct {
	Type    string           `json:"type"`
	Speaker *json.RawMessage `json:"speaker"`
	Text    string           `json:"text"`
	Start   float64          `json:"start"`
}

type metaDocument struct {
	Text     string        `json:"text"`
	Segments []metaSegment `json:"segments"`
}

func (s metaSegment) speakerLabel() string {
	if s.Speaker == nil {
		return "Unknown"
	}
	var str string
	if err := json.Unmarshal(*s.Speaker, &str); err == nil {
		return str
	}
	return strings.Trim(string(*s.Speaker), `"`)
}

// File renders one metadata sidecar to w: a header naming the file and its
// recording time, then one "[speaker, MM:SS] text" line per segment. A
// document without segments falls back to its plain text field.
func File(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc metaDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	name := filepath.Base(path)
	fmt.Fprintf(w, "\n=== %s ===\n", name)
	if ts, ok := TimestampFromName(name); ok {
		fmt.Fprintf(w, "File created: %s\n", ts.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(w)

	if len(doc.Segments) == 0 {
		if doc.Text != "" {
			fmt.Fprintf(w, "[Unknown, 00:00] %s\n", doc.Text)
		}
		return nil
	}

	for _, seg := range doc.Segments {
		if seg.Type != "" && seg.Type != "transcript.text.segment" {
			continue
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(w, "[%s, %s] %s\n", seg.speakerLabel(), FormatOffset(seg.Start), text)
	}

	return nil
}

// Collect lists metadata JSON files in dir whose filename timestamps fall
// within [start, end], sorted chronologically.
func Collect(dir string, start, end time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	type stamped struct {
		ts   time.Time
		path string
	}

	var matches []stamped
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		ts, ok := TimestampFromName(entry.Name())
		if !ok {
			continue
		}
		if ts.Before(start) || ts.After(end) {
			continue
		}
		matches = append(matches, stamped{ts: ts, path: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ts.Before(matches[j].ts) })

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, m.path)
	}
	return paths, nil
}
