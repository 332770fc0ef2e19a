// Package scribe provides the transcription pipeline configuration and the
// scan loop that drives it.
package scribe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Default values for optional configuration fields
const (
	DefaultAPIBase             = "https://api.openai.com/v1"
	DefaultModel               = "whisper-1"
	DefaultScanInterval        = 30 * time.Second
	DefaultFilePause           = 2 * time.Second
	DefaultMaxFileSizeMB       = 100
	DefaultStabilizeIntervalMs = 1000
	DefaultStabilizeChecks     = 2
)

// DefaultExtensions is the default scan allow-list. The remote service
// accepts more formats; widen via SCRIBE_EXTENSIONS when wanted.
var DefaultExtensions = []string{"flac", "wav"}

// Config is the immutable pipeline configuration, constructed once at
// startup and passed into every component.
type Config struct {
	APIKey    string
	AudioDir  string
	OutputDir string
	APIBase   string

	Model   string
	Diarize bool
	AutoFix bool

	Extensions   []string
	ScanInterval time.Duration
	FilePause    time.Duration

	ScratchDir    string
	MaxFileSizeMB int

	StabilizeIntervalMs int
	StabilizeChecks     int
}

// Validation errors
var (
	ErrAPIKeyRequired   = errors.New("SCRIBE_API_KEY is required")
	ErrAudioDirRequired = errors.New("SCRIBE_AUDIO_DIR is required")
)

// LoadFromEnv builds a Config from SCRIBE_* environment variables, applies
// defaults and validates it. The caller is expected to have loaded any .env
// file beforehand.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:    os.Getenv("SCRIBE_API_KEY"),
		AudioDir:  os.Getenv("SCRIBE_AUDIO_DIR"),
		OutputDir: os.Getenv("SCRIBE_OUTPUT_DIR"),
		APIBase:   os.Getenv("SCRIBE_API_BASE"),
		Model:     os.Getenv("SCRIBE_MODEL"),
	}

	var err error
	if cfg.Diarize, err = envBool("SCRIBE_DIARIZE", false); err != nil {
		return nil, err
	}
	if cfg.AutoFix, err = envBool("SCRIBE_AUTO_FIX", true); err != nil {
		return nil, err
	}
	if cfg.ScanInterval, err = envDuration("SCRIBE_SCAN_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.FilePause, err = envDuration("SCRIBE_FILE_PAUSE"); err != nil {
		return nil, err
	}
	if cfg.MaxFileSizeMB, err = envInt("SCRIBE_MAX_FILE_SIZE_MB"); err != nil {
		return nil, err
	}
	if cfg.StabilizeIntervalMs, err = envInt("SCRIBE_STABILIZE_INTERVAL_MS"); err != nil {
		return nil, err
	}
	if cfg.StabilizeChecks, err = envInt("SCRIBE_STABILIZE_CHECKS"); err != nil {
		return nil, err
	}

	if raw := os.Getenv("SCRIBE_EXTENSIONS"); raw != "" {
		for _, ext := range strings.Split(raw, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				cfg.Extensions = append(cfg.Extensions, ext)
			}
		}
	}
	cfg.ScratchDir = os.Getenv("SCRIBE_SCRATCH_DIR")

	cfg.ApplyDefaults()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults sets default values for optional fields that are empty or zero.
func (c *Config) ApplyDefaults() {
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.OutputDir == "" {
		c.OutputDir = c.AudioDir
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if c.ScanInterval == 0 {
		c.ScanInterval = DefaultScanInterval
	}
	if c.FilePause == 0 {
		c.FilePause = DefaultFilePause
	}
	if c.ScratchDir == "" {
		c.ScratchDir = filepath.Join(os.TempDir(), "scribewatch")
	}
	if c.MaxFileSizeMB == 0 {
		c.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if c.StabilizeIntervalMs == 0 {
		c.StabilizeIntervalMs = DefaultStabilizeIntervalMs
	}
	if c.StabilizeChecks == 0 {
		c.StabilizeChecks = DefaultStabilizeChecks
	}
}

// Validate checks that required fields are present and the audio directory
// exists. Failures here are fatal at startup.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrAPIKeyRequired
	}
	if c.AudioDir == "" {
		return ErrAudioDirRequired
	}
	info, err := os.Stat(c.AudioDir)
	if err != nil {
		return fmt.Errorf("audio directory %s: %w", c.AudioDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("audio directory %s: not a directory", c.AudioDir)
	}
	return nil
}

func (c *Config) expandPaths() {
	c.AudioDir = expandTilde(c.AudioDir)
	c.OutputDir = expandTilde(c.OutputDir)
	c.ScratchDir = expandTilde(c.ScratchDir)
}

// expandTilde expands ~ at the beginning of a path to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func envBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envInt(key string) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
