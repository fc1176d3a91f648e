package helper

import (
	"os"
	"path/filepath"
)

// DefaultPIDPath is used when no usable PID path is configured.
const DefaultPIDPath = "/var/run/cryptogrammer.pid"

// GetPIDPath returns the path to the PID file.
//
// Absolute paths are returned as-is. Relative paths resolve against the
// working directory when their parent directory exists; everything else
// falls back to DefaultPIDPath.
func GetPIDPath(filename string) string {
	if filename == "" {
		return DefaultPIDPath
	}
	if filepath.IsAbs(filename) {
		return filename
	}

	currentDir, err := os.Getwd()
	if err != nil || currentDir == "" {
		return DefaultPIDPath
	}

	absPath, err := filepath.Abs(filepath.Join(currentDir, filename))
	if err != nil {
		return DefaultPIDPath
	}
	if _, err := os.Stat(filepath.Dir(absPath)); err != nil {
		return DefaultPIDPath
	}
	return absPath
}
