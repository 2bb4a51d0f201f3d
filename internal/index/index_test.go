package index

import (
	"os"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ecolog-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func fox() EntryRow {
	return EntryRow{
		ID:           "e1",
		NotebookID:   "n1",
		NotebookName: "Mammals",
		Title:        "Red Fox",
		Scientific:   "Vulpes vulpes",
		Tags:         []string{"canid", "urban"},
		Description:  "A small omnivore seen at dusk.",
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries`).Scan(&count); err != nil {
		t.Fatalf("entries table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM meta`).Scan(&count); err != nil {
		t.Fatalf("meta table missing: %v", err)
	}
}

func TestUpsertEntryAndChecksum(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertEntry(fox(), "abc123"); err != nil {
		t.Fatalf("UpsertEntry: %v", err)
	}
	cs, err := db.DocumentChecksum()
	if err != nil {
		t.Fatalf("DocumentChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want abc123", cs)
	}
	if n, _ := db.Count(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	row := fox()
	_ = db.UpsertEntry(row, "1")
	row.Title = "Arctic Fox"
	row.Description = "White in winter."
	_ = db.UpsertEntry(row, "2")

	if n, _ := db.Count(); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	results, _ := db.Search("Arctic", 10)
	if len(results) != 1 || results[0].Title != "Arctic Fox" {
		t.Errorf("results = %+v", results)
	}
}

func TestSameEntryIDInTwoNotebooks(t *testing.T) {
	db := testDB(t)
	a := fox()
	b := fox()
	b.NotebookID = "n2"
	_ = db.UpsertEntry(a, "1")
	_ = db.UpsertEntry(b, "2")
	if n, _ := db.Count(); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestReplaceAll(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(fox(), "old")

	owl := EntryRow{ID: "e2", NotebookID: "n2", NotebookName: "Birds", Title: "Barn Owl", Scientific: "Tyto alba"}
	if err := db.ReplaceAll([]EntryRow{owl}, "new"); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if n, _ := db.Count(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if res, _ := db.Search("Fox", 10); len(res) != 0 {
		t.Errorf("old entry still searchable: %+v", res)
	}
	if cs, _ := db.DocumentChecksum(); cs != "new" {
		t.Errorf("checksum = %q", cs)
	}
}

func TestDocumentChecksum_Empty(t *testing.T) {
	db := testDB(t)
	cs, err := db.DocumentChecksum()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertEntry(fox(), "1")

	results, err := db.Search("omnivore", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %+v, want 1 hit", results)
	}
	r := results[0]
	if r.EntryID != "e1" || r.NotebookID != "n1" || r.NotebookName != "Mammals" {
		t.Errorf("result = %+v", r)
	}
}

func TestSearch_NoHitsIsEmptySlice(t *testing.T) {
	db := testDB(t)
	results, err := db.Search("nothing", 10)
	if err != nil {
		t.Fatal(err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("results = %#v, want empty slice", results)
	}
}
