package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
)

const appName = "podscribe"

// DefaultEnvFilesFor lists .env candidates in lookup order: the working
// directory first, then the per-user config directory.
func DefaultEnvFilesFor(goos, homeDir, xdgConfigHome string) []string {
	files := []string{".env"}

	switch goos {
	case "linux":
		if xdgConfigHome != "" {
			files = append(files, filepath.Join(xdgConfigHome, appName, "env"))
		} else if homeDir != "" {
			files = append(files, filepath.Join(homeDir, ".config", appName, "env"))
		}
	case "darwin":
		if homeDir != "" {
			files = append(files, filepath.Join(homeDir, "Library", "Application Support", appName, "env"))
		}
	}

	return files
}

// LoadEnv loads variables from an explicit env file, or from the first
// default candidate that exists. Variables already set in the process
// environment win. It returns the file that was loaded, if any.
func LoadEnv(explicit string) (string, error) {
	if explicit != "" {
		if err := godotenv.Load(explicit); err != nil {
			return "", fmt.Errorf("load env file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	homeDir, _ := os.UserHomeDir()
	for _, candidate := range DefaultEnvFilesFor(runtime.GOOS, homeDir, os.Getenv("XDG_CONFIG_HOME")) {
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("stat env file %s: %w", candidate, err)
		}
		if err := godotenv.Load(candidate); err != nil {
			return "", fmt.Errorf("load env file %s: %w", candidate, err)
		}
		return candidate, nil
	}

	return "", nil
}
