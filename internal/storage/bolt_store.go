package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/models"
)

var (
	boltBucket = []byte("ecolog")
	boltKey    = []byte("document")
)

// BoltStore keeps the document under a single key; Update runs in one bbolt
// read-write transaction.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the bbolt file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open bolt %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

// Load reads the document in a read-only transaction.
func (s *BoltStore) Load(ctx context.Context) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc *models.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		var data []byte
		if b := tx.Bucket(boltBucket); b != nil {
			data = b.Get(boltKey)
		}
		var err error
		doc, err = decode(data)
		return err
	})
	if err != nil {
		return nil, wrapBolt(err)
	}
	return doc, nil
}

// Update loads, mutates and stores the document in one transaction. An error
// from fn rolls the transaction back.
func (s *BoltStore) Update(ctx context.Context, fn func(*models.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}
		doc, err := decode(b.Get(boltKey))
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return fnError{err}
		}
		data, err := encode(doc)
		if err != nil {
			return err
		}
		return b.Put(boltKey, data)
	})
	var fe fnError
	if errors.As(err, &fe) {
		return fe.err
	}
	if err != nil {
		return wrapBolt(err)
	}
	return nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// fnError marks errors returned by the caller's mutation so they pass
// through unwrapped.
type fnError struct{ err error }

func (e fnError) Error() string { return e.err.Error() }

func wrapBolt(err error) error {
	if errors.Is(err, apperr.ErrPersistence) {
		return err
	}
	return fmt.Errorf("storage: bolt: %w: %w", apperr.ErrPersistence, err)
}
