// Package storage is the narrow port to the binary document store. The core
// only ever needs "store these bytes, give me a retrievable URL"; swapping the
// local-disk implementation for an object store is a wiring change in main.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Kind tags what a stored document is, which decides its folder.
type Kind string

const (
	KindPODocument   Kind = "po"
	KindBASTDocument Kind = "bast"
	KindProofPhoto   Kind = "proof"
)

// DocumentStore stores an uploaded document and returns its retrievable URL.
type DocumentStore interface {
	Store(kind Kind, filename string, data []byte) (string, error)
}

// LocalStore writes documents under a base directory served as /uploads.
type LocalStore struct {
	BaseDir string
	BaseURL string
}

func NewLocalStore(baseDir, baseURL string) *LocalStore {
	return &LocalStore{BaseDir: baseDir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Store(kind Kind, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.BaseDir, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	// Prefix with a timestamp so repeated uploads of the same filename don't
	// clobber each other.
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(filename))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.BaseURL, kind, name), nil
}
