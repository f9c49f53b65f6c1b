package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFileName is the name of the active log file.
const LogFileName = "argus.log"

// DefaultLogDir returns ~/.argus/logs, or a directory under the temp dir
// when the home directory is unknown.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".argus", "logs")
	}
	return filepath.Join(home, ".argus", "logs")
}

// DefaultLogPath returns the active log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), LogFileName)
}

// FindLogFile returns explicit if it exists, else the default log file.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("log file not found: %s", explicit)
		}
		return explicit, nil
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no log file found at %s; run any argus command first (add --debug for detail)", path)
	}
	return path, nil
}
