package media

import (
	"fmt"
	"io"
	"os"
)

// Staged is a blob written to a temporary file. Callers own the file and must
// call Remove once the transcription is done.
type Staged struct {
	Path string
	Name string
}

// Stage copies r into a temp file that keeps the extension of name.
func Stage(dir, name string, r io.Reader) (Staged, error) {
	if err := CheckExtension(name); err != nil {
		return Staged{}, err
	}

	f, err := os.CreateTemp(dir, "podscribe-*"+Blob{Name: name}.Ext())
	if err != nil {
		return Staged{}, fmt.Errorf("create staging file: %w", err)
	}

	success := false
	defer func() {
		_ = f.Close()
		if !success {
			_ = os.Remove(f.Name())
		}
	}()

	if _, err := io.Copy(f, r); err != nil {
		return Staged{}, fmt.Errorf("write staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		return Staged{}, fmt.Errorf("close staging file: %w", err)
	}

	success = true
	return Staged{Path: f.Name(), Name: name}, nil
}

func (s Staged) Load() (Blob, error) {
	blob, err := Load(s.Path)
	if err != nil {
		return Blob{}, err
	}
	blob.Name = s.Name
	return blob, nil
}

func (s Staged) Remove() error {
	if s.Path == "" {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
