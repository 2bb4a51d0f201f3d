//go:build sqlite_fts5

package index

import "testing"

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries_fts`).Scan(&count); err != nil {
		t.Fatalf("entries_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := fox()
	row.Description = "Foxes adapt remarkably well to cities."
	if err := db.UpsertEntry(row, "1"); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}

	results, err := db.Search("remarkably", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].NotebookName != "Mammals" {
		t.Errorf("notebook = %q", results[0].NotebookName)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_ReplaceAllClearsFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(fox(), "1")
	_ = db.ReplaceAll(nil, "2")

	results, _ := db.Search("omnivore", 10)
	if len(results) != 0 {
		t.Errorf("stale FTS rows: %+v", results)
	}
}
