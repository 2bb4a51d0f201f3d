package index

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/ecolog/internal/models"
	"github.com/starford/ecolog/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func seedStore(t *testing.T, path string) *storage.JSONStore {
	t.Helper()
	store, err := storage.NewJSONStore(path)
	if err != nil {
		t.Fatal(err)
	}
	err = store.Update(context.Background(), func(d *models.Document) error {
		d.Notebooks = append(d.Notebooks, models.Notebook{
			ID:   "n1",
			Name: "Mammals",
			Entries: []models.Entry{
				{ID: "e1", Title: "Red Fox", Description: "Dusk hunter."},
				{ID: "e2", Title: "Badger", Description: "Digs setts."},
			},
		})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestSync(t *testing.T) {
	db := testDB(t)
	store := seedStore(t, filepath.Join(t.TempDir(), "ecolog_data.json"))
	ctx := context.Background()

	changed, err := Sync(ctx, db, store, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !changed {
		t.Error("first sync should rebuild")
	}
	if n, _ := db.Count(); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	changed, err = Sync(ctx, db, store, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("second sync should be a no-op")
	}

	_ = store.Update(ctx, func(d *models.Document) error {
		d.Notebooks[0].Entries = d.Notebooks[0].Entries[:1]
		return nil
	})
	changed, _ = Sync(ctx, db, store, quietLogger())
	if !changed {
		t.Error("sync after edit should rebuild")
	}
	if n, _ := db.Count(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestDocumentSum_IgnoresNilVersusEmpty(t *testing.T) {
	a := &models.Document{Notebooks: []models.Notebook{{ID: "n1"}}}
	b := models.NewDocument()
	b.Notebooks = append(b.Notebooks, models.Notebook{ID: "n1", Entries: []models.Entry{}})
	if DocumentSum(a) != DocumentSum(b) {
		t.Error("normalized documents should hash equally")
	}
}
