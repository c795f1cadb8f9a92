// Package output delivers a finished transcript to its destinations.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is used when a directory is given as the output target.
const DefaultFileName = "transcript.txt"

// ResolvePath turns an --output value into a file path. An existing
// directory or a value ending in a separator gets DefaultFileName appended.
func ResolvePath(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	if strings.HasSuffix(target, string(os.PathSeparator)) {
		return filepath.Join(target, DefaultFileName)
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return filepath.Join(target, DefaultFileName)
	}
	return filepath.Clean(target)
}

// WriteFile stores the transcript with a trailing newline. The file is
// written next to its destination first and renamed into place.
func WriteFile(path, transcript string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		_ = tmp.Close()
		if !success {
			_ = os.Remove(tmp.Name())
		}
	}()

	content := strings.TrimRight(transcript, "\n") + "\n"
	if _, err := tmp.WriteString(content); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod transcript: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move transcript into place: %w", err)
	}

	success = true
	return nil
}
