package analysis

import (
	"fmt"
	"sync"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/models"
)

// ResultStore keeps completed analyses for the life of the process.
// There is no eviction; a repeated Put overwrites.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]models.AnalysisResult
}

// NewResultStore returns an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]models.AnalysisResult)}
}

// Put stores result under id.
func (s *ResultStore) Put(id string, result models.AnalysisResult) {
	s.mu.Lock()
	s.results[id] = result
	s.mu.Unlock()
}

// Get returns the result for id or apperr.ErrNotFound.
func (s *ResultStore) Get(id string) (models.AnalysisResult, error) {
	s.mu.RLock()
	result, ok := s.results[id]
	s.mu.RUnlock()
	if !ok {
		return models.AnalysisResult{}, fmt.Errorf("analysis %q: %w", id, apperr.ErrNotFound)
	}
	return result, nil
}

// Len returns the number of stored results.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
