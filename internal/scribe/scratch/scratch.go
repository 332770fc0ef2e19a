// Package scratch manages the temporary directory that holds repaired audio
// copies. The pipeline keeps at most one live file here at a time.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Area is a dedicated temp directory for re-encoded audio.
type Area struct {
	dir string
}

// New creates an Area rooted at dir. The directory is created lazily by
// Ensure, not here.
func New(dir string) *Area {
	return &Area{dir: dir}
}

// Dir returns the scratch directory path.
func (a *Area) Dir() string {
	return a.dir
}

// Ensure creates the scratch directory if it does not exist.
func (a *Area) Ensure() error {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	return nil
}

// PathFor derives the scratch location for a repaired copy of src.
// A FLAC source yields <scratch>/<base>_repaired.flac.
func (a *Area) PathFor(src string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(a.dir, name+"_repaired"+strings.ToLower(ext))
}

// Remove deletes a single scratch file. A missing file is not an error.
func (a *Area) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove scratch file: %w", err)
	}
	return nil
}

// Purge deletes the scratch directory and everything in it.
func (a *Area) Purge() error {
	if err := os.RemoveAll(a.dir); err != nil {
		return fmt.Errorf("purge scratch directory: %w", err)
	}
	return nil
}
