// Package datafile reads and writes the single YAML document that holds
// all accounting and investing data.
package datafile

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"finanzbuch/internal/accounting"
	"finanzbuch/internal/investing"
)

const (
	// FileName is the document name inside the user's home directory.
	FileName = "finanzbuch.yaml"
	// Version is stamped on every write.
	Version uint8 = 5
)

var ErrNoHome = errors.New("user has no home directory")

// DataFile is the whole persisted document, in serialization order.
type DataFile struct {
	Version    uint8                 `yaml:"version"`
	Accounting accounting.Accounting `yaml:"accounting"`
	Investing  investing.Investing   `yaml:"investing"`
}

// New returns an empty document at the current version.
func New() *DataFile {
	return &DataFile{
		Version:    Version,
		Accounting: *accounting.New(),
		Investing:  *investing.NewInvesting(),
	}
}

// HomePath is $HOME/finanzbuch.yaml.
func HomePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("%w: %v", ErrNoHome, err)
	}
	return filepath.Join(home, FileName), nil
}

// Decode parses a document. Blank content yields an empty document.
func Decode(content []byte) (*DataFile, error) {
	f := New()
	if len(bytes.TrimSpace(content)) == 0 {
		return f, nil
	}
	if err := yaml.Unmarshal(content, f); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if f.Version < Version {
		slog.Info("Document has an older version and is upgraded on the next write",
			"version", f.Version,
			"current_version", Version)
	}
	return f, nil
}

// Encode serializes the document with the current version.
func (f *DataFile) Encode() ([]byte, error) {
	f.Version = Version
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy.
func (f *DataFile) Clone() *DataFile {
	return &DataFile{
		Version:    f.Version,
		Accounting: *f.Accounting.Clone(),
		Investing:  *f.Investing.Clone(),
	}
}

// Read loads the document at path. A missing file yields an empty document;
// an unparseable one is an error.
func Read(path string) (*DataFile, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Decode(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Write replaces the document at path. The content goes to a temporary file
// in the same directory first and is renamed over the target.
func Write(path string, f *DataFile) error {
	content, err := f.Encode()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	slog.Debug("Document written", "path", path, "bytes", len(content))
	return nil
}
