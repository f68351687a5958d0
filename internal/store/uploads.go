// Package store persists uploaded transcripts and their structured output.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("file not found")

// StructuredSuffix is appended to a transcript stem to name its output.
const StructuredSuffix = "_structured.json"

// Uploads is the shared uploads directory holding transcripts and outputs.
type Uploads struct {
	dir string
}

// NewUploads returns an Uploads rooted at dir, creating it when missing.
func NewUploads(dir string) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}
	return &Uploads{dir: dir}, nil
}

// Dir returns the uploads directory.
func (u *Uploads) Dir() string {
	return u.dir
}

// Path resolves name inside the uploads directory. Directory components of
// name are discarded.
func (u *Uploads) Path(name string) string {
	return filepath.Join(u.dir, filepath.Base(name))
}

// Save writes r to name, replacing any existing file, and returns its path.
func (u *Uploads) Save(name string, r io.Reader) (string, error) {
	path := u.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// Read returns the contents of name.
func (u *Uploads) Read(name string) ([]byte, error) {
	path := u.Path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}

// WriteJSON encodes v to name with the given indent. HTML and non-ASCII
// characters are written as-is and the file has no trailing newline.
func (u *Uploads) WriteJSON(name string, v any, indent string) (string, error) {
	path := u.Path(name)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, bytes.TrimSuffix(buf.Bytes(), []byte("\n")), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Stem returns name without its last extension.
func Stem(name string) string {
	name = filepath.Base(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

// StructuredName returns the default output name for a transcript.
func StructuredName(inputName string) string {
	return Stem(inputName) + StructuredSuffix
}
