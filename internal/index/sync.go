package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/ecolog/internal/checksum"
	"github.com/starford/ecolog/internal/models"
	"github.com/starford/ecolog/internal/storage"
)

// DocumentSum is the checksum the index records for doc.
func DocumentSum(doc *models.Document) string {
	doc.Normalize()
	data, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}

// RowFor builds the index row for an entry of nb.
func RowFor(nb models.Notebook, e models.Entry) EntryRow {
	return EntryRow{
		ID:           e.ID,
		NotebookID:   nb.ID,
		NotebookName: nb.Name,
		Title:        e.Title,
		Scientific:   e.Scientific,
		Tags:         e.Tags,
		Description:  e.Description,
		FunFact:      e.FunFact,
		Notes:        e.Notes,
		Author:       e.Author,
		ImageURL:     e.ImageURL,
	}
}

// Rows flattens every entry of doc.
func Rows(doc *models.Document) []EntryRow {
	var out []EntryRow
	for _, nb := range doc.Notebooks {
		for _, e := range nb.Entries {
			out = append(out, RowFor(nb, e))
		}
	}
	return out
}

// Sync rebuilds the index from the stored document when the document's
// checksum differs from the one last recorded. It reports whether a rebuild
// happened.
func Sync(ctx context.Context, db EntryIndex, store storage.DocumentStore, logger *slog.Logger) (bool, error) {
	doc, err := store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("index: sync load: %w", err)
	}
	sum := DocumentSum(doc)

	current, err := db.DocumentChecksum()
	if err != nil {
		return false, err
	}
	if current == sum {
		logger.Debug("sync: index up to date", slog.String("checksum", sum))
		return false, nil
	}

	rows := Rows(doc)
	if err := db.ReplaceAll(rows, sum); err != nil {
		return false, err
	}
	logger.Info("sync: index rebuilt",
		slog.Int("notebooks", len(doc.Notebooks)),
		slog.Int("entries", len(rows)))
	return true, nil
}
