// Package pidfile provides PID file management for the watch loop lifecycle.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Common errors
var (
	ErrNoPIDFile  = errors.New("no PID file found")
	ErrInvalidPID = errors.New("invalid PID in file")
)

const (
	fileName = "scribewatch.pid"
	dirPerm  = 0755
	filePerm = 0644
)

// DefaultPath returns ~/.scribewatch/scribewatch.pid.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".scribewatch", fileName), nil
}

// Write creates the PID file at path with the given process ID, creating
// parent directories as needed.
func Write(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	content := strconv.Itoa(pid) + "\n"
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// Read reads the PID from path.
// Returns ErrNoPIDFile if the file doesn't exist and ErrInvalidPID if it
// holds anything other than a positive integer.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNoPIDFile
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, ErrInvalidPID
	}
	return pid, nil
}

// Remove deletes the PID file. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// IsRunning checks whether the process recorded at path is alive.
// Returns (false, 0, nil) when no PID file exists and (false, pid, nil) for
// a stale file.
func IsRunning(path string) (bool, int, error) {
	pid, err := Read(path)
	if err != nil {
		if errors.Is(err, ErrNoPIDFile) {
			return false, 0, nil
		}
		return false, 0, err
	}

	// Signal 0 probes for existence without delivering anything.
	err = syscall.Kill(pid, 0)
	if err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return false, pid, nil
		}
		if errors.Is(err, syscall.EPERM) {
			return true, pid, nil
		}
		return false, pid, fmt.Errorf("check process: %w", err)
	}
	return true, pid, nil
}
