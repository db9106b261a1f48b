package config

import (
	"os"
	"path/filepath"
)

// GetRuntimePath returns the runtime directory before the full config is
// parsed, so that <runtime>/.env can be loaded first.
func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv("MAREEN_RUNTIME_PATH"))
}

func resolveRuntimePath(path string) string {
	if path == "" {
		path = ".mareen"
	}

	if !filepath.IsAbs(path) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(home, path)
	}
	return path
}
