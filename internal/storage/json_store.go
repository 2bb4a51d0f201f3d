package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/models"
)

// JSONStore keeps the document in one indented JSON file. Writers are
// serialized in-process and every save is an atomic rename.
type JSONStore struct {
	mu   sync.Mutex
	fs   *FS
	name string
	path string
}

// NewJSONStore returns a store for the file at path. The file itself is
// created on the first update.
func NewJSONStore(path string) (*JSONStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve %s: %w", path, err)
	}
	fs, err := NewFS(filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	return &JSONStore{fs: fs, name: filepath.Base(abs), path: abs}, nil
}

// Path returns the absolute path of the data file.
func (s *JSONStore) Path() string { return s.path }

// Load reads the document from disk.
func (s *JSONStore) Load(ctx context.Context) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Raw returns the file bytes as stored, or nil when the file does not exist.
func (s *JSONStore) Raw() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.fs.Read(s.name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	return data, nil
}

func (s *JSONStore) load() (*models.Document, error) {
	data, err := s.fs.Read(s.name)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	return decode(data)
}

// Update applies fn under the store lock and saves the result.
func (s *JSONStore) Update(ctx context.Context, fn func(*models.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	data, err := encode(doc)
	if err != nil {
		return err
	}
	if err := s.fs.Write(s.name, data); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	return nil
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }
