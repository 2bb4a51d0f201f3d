// Package storage persists the notebook document.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/models"
)

// DocumentStore loads and transactionally updates the notebook document.
type DocumentStore interface {
	// Load returns the whole document, or an empty one when nothing is stored.
	Load(ctx context.Context) (*models.Document, error)
	// Update loads the document, applies fn and saves the result as one
	// transaction. Nothing is written when fn returns an error.
	Update(ctx context.Context, fn func(*models.Document) error) error
	// Close releases the underlying resources.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverJSON = "json"
	DriverBolt = "bolt"
)

// Open returns the store for driver at path.
func Open(driver, path string) (DocumentStore, error) {
	switch driver {
	case "", DriverJSON:
		return NewJSONStore(path)
	case DriverBolt:
		return NewBoltStore(path)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}

func decode(data []byte) (*models.Document, error) {
	doc := models.NewDocument()
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("storage: decode document: %w: %w", apperr.ErrPersistence, err)
	}
	doc.Normalize()
	return doc, nil
}

func encode(doc *models.Document) ([]byte, error) {
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("storage: encode document: %w: %w", apperr.ErrPersistence, err)
	}
	return append(data, '\n'), nil
}
