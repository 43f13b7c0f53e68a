// Package pathutil provides path resolution helpers shared across commands.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve converts a user-supplied path to an absolute path, expanding a
// leading ~ to the home directory. An empty path resolves to the current
// working directory. The path does not need to exist.
func Resolve(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = home + path[1:]
	}

	return filepath.Abs(path)
}
