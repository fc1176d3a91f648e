package helper

import (
	"os"
	"path/filepath"
)

// SystemConfigDir is the last place GetCfgPath looks for a configuration file.
const SystemConfigDir = "/etc/cryptogrammer"

// GetCfgPath returns the path to the configuration file.
//
// Priority:
// 1. If filename is an absolute path, return it directly.
// 2. Check ./{filename} and ./configs/{filename}
// 3. Otherwise, fallback to /etc/cryptogrammer/{filename}
func GetCfgPath(filename string) string {
	if filename == "" {
		panic("filename cannot be empty")
	}

	if filepath.IsAbs(filename) {
		return filename
	}

	if found := findInWorkDir(filename, ".", "configs"); found != "" {
		return found
	}

	return filepath.Join(SystemConfigDir, filename)
}

// findInWorkDir returns the absolute path of the first existing
// {cwd}/{dir}/{filename} candidate, or "" when none exists.
func findInWorkDir(filename string, dirs ...string) string {
	currentDir, err := os.Getwd()
	if err != nil || currentDir == "" {
		return ""
	}

	for _, dir := range dirs {
		candidate := filepath.Join(currentDir, dir, filename)
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if abs, err := filepath.Abs(candidate); err == nil {
			return abs
		}
	}
	return ""
}
