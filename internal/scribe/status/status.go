// Package status parses the watch loop's log for status display.
package status

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Stats holds parsed statistics from the log file.
type Stats struct {
	FilesProcessed int
	Errors         int
	LastProcessed  *ProcessedFile
}

// ProcessedFile holds information about the last processed file.
type ProcessedFile struct {
	Timestamp  time.Time
	Path       string
	Transcript string
}

// logDir returns the default log directory path
func logDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".scribewatch", "logs"), nil
}

// TodayLogPath returns the path to today's scribewatch log file.
func TodayLogPath() (string, error) {
	dir, err := logDir()
	if err != nil {
		return "", err
	}
	today := time.Now().UTC().Format("2006-01-02")
	return filepath.Join(dir, "scribewatch-"+today+".log"), nil
}

// ParseTodayStats parses today's log file and returns statistics.
// Returns empty stats if the log file doesn't exist.
func ParseTodayStats() (*Stats, error) {
	logPath, err := TodayLogPath()
	if err != nil {
		return nil, err
	}
	return ParseLogFile(logPath)
}

// Log line shapes:
//
//	2026-08-29T14:30:00Z INFO  [processor] file processed path=/a/rec.flac transcript=/o/rec.txt metadata=/o/rec_transcript_meta.json
//
// Values containing whitespace are logged quoted, so each capture accepts
// either a quoted string or a bare token.
var (
	processedPattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)\s+INFO\s+\[processor\]\s+file processed\s+path=("[^"]*"|\S+)\s+transcript=("[^"]*"|\S+)`)
	placeholderPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)\s+INFO\s+\[processor\]\s+no speech detected, placeholder written\s+path=("[^"]*"|\S+)\s+output=("[^"]*"|\S+)`)
	errorPattern       = regexp.MustCompile(`\s+ERROR\s+`)
)

// ParseLogFile parses a log file and returns statistics.
// Returns empty stats if the file doesn't exist.
func ParseLogFile(path string) (*Stats, error) {
	stats := &Stats{}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		matches := processedPattern.FindStringSubmatch(line)
		if matches == nil {
			matches = placeholderPattern.FindStringSubmatch(line)
		}
		if matches != nil {
			stats.FilesProcessed++
			timestamp, err := time.Parse(time.RFC3339, matches[1])
			if err == nil {
				stats.LastProcessed = &ProcessedFile{
					Timestamp:  timestamp,
					Path:       unquoteIfNeeded(matches[2]),
					Transcript: unquoteIfNeeded(matches[3]),
				}
			}
		}

		if errorPattern.MatchString(line) {
			stats.Errors++
		}
	}

	return stats, scanner.Err()
}

// unquoteIfNeeded removes surrounding quotes from a string if present.
func unquoteIfNeeded(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// FormatTimestamp formats a timestamp for display.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02T15:04:05")
}
