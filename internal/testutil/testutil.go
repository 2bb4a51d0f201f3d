// Package testutil provides shared test helpers: temporary stores and
// indexes, and fakes for the external vision and image services.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/ecolog/internal/index"
	"github.com/starford/ecolog/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ecolog-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a JSON document store in a temporary directory and
// returns it with the data file path.
func TestStore(t *testing.T) (*storage.JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ecolog_data.json")
	store, err := storage.NewJSONStore(path)
	if err != nil {
		t.Fatal(err)
	}
	return store, path
}

// FakeVision is a scripted vision service.
type FakeVision struct {
	Reply string
	Err   error

	mu           sync.Mutex
	instructions []string
}

// Describe records the instruction and returns Reply or Err.
func (f *FakeVision) Describe(_ context.Context, _ []byte, _ string, instruction string) (string, error) {
	f.mu.Lock()
	f.instructions = append(f.instructions, instruction)
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

// Instructions returns the instructions received so far.
func (f *FakeVision) Instructions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.instructions...)
}

// FakeImage is a scripted image service.
type FakeImage struct {
	URL string
	Err error

	mu      sync.Mutex
	prompts []string
}

// Generate records the prompt and returns URL or Err.
func (f *FakeImage) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.URL, nil
}

// Prompts returns the prompts received so far.
func (f *FakeImage) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
