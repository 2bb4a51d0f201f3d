package index

// EntryIndex defines the interface for entry indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type EntryIndex interface {
	UpsertEntry(row EntryRow, docChecksum string) error
	SetDocumentChecksum(docChecksum string) error
	ReplaceAll(rows []EntryRow, docChecksum string) error
	DocumentChecksum() (string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies EntryIndex at compile time.
var _ EntryIndex = (*DB)(nil)
