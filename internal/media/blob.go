// Package media holds the audio payload handed to the remote service.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrEmptyBlob         = errors.New("audio file is empty")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// SupportedExtensions lists the file types accepted for upload.
var SupportedExtensions = []string{".mp3", ".wav", ".flac"}

// DefaultMaxSize caps how much is read from an untrusted reader.
const DefaultMaxSize int64 = 512 << 20

// Blob is the raw content of one audio file. It lives only for the duration
// of a single transcription.
type Blob struct {
	Name string
	Data []byte
}

func (b Blob) Ext() string {
	return strings.ToLower(filepath.Ext(b.Name))
}

func (b Blob) Size() int64 {
	return int64(len(b.Data))
}

func (b Blob) Reader() io.Reader {
	return bytes.NewReader(b.Data)
}

func (b Blob) Validate() error {
	if len(b.Data) == 0 {
		return ErrEmptyBlob
	}
	return CheckExtension(b.Name)
}

func CheckExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(SupportedExtensions, ext) {
		if ext == "" {
			ext = "(none)"
		}
		return fmt.Errorf("%w %s; expected one of %s", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions, ", "))
	}
	return nil
}

// Load reads an audio file from disk and validates it.
func Load(path string) (Blob, error) {
	path = filepath.Clean(path)
	if err := CheckExtension(path); err != nil {
		return Blob{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Blob{}, fmt.Errorf("audio file not found: %w", err)
		}
		return Blob{}, fmt.Errorf("read audio file: %w", err)
	}

	blob := Blob{Name: filepath.Base(path), Data: data}
	if err := blob.Validate(); err != nil {
		return Blob{}, err
	}
	return blob, nil
}

// Read builds a Blob from r, refusing content larger than maxSize bytes.
func Read(name string, r io.Reader, maxSize int64) (Blob, error) {
	if err := CheckExtension(name); err != nil {
		return Blob{}, err
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return Blob{}, fmt.Errorf("read audio: %w", err)
	}
	if int64(len(data)) > maxSize {
		return Blob{}, fmt.Errorf("audio exceeds %d bytes", maxSize)
	}

	blob := Blob{Name: filepath.Base(name), Data: data}
	if err := blob.Validate(); err != nil {
		return Blob{}, err
	}
	return blob, nil
}
