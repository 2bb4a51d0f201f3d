package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const docChecksumKey = "document_checksum"

// EntryRow is one indexed entry together with its notebook.
type EntryRow struct {
	ID           string
	NotebookID   string
	NotebookName string
	Title        string
	Scientific   string
	Tags         []string
	Description  string
	FunFact      string
	Notes        string
	Author       string
	ImageURL     string
}

// SearchResult represents one search hit.
type SearchResult struct {
	EntryID      string `json:"entry_id"`
	NotebookID   string `json:"notebook_id"`
	NotebookName string `json:"notebook_name"`
	Title        string `json:"title"`
	Scientific   string `json:"scientific"`
	Snippet      string `json:"snippet"`
}

// UpsertEntry inserts or replaces one entry and its FTS row, and records
// docChecksum as the document state the index now reflects.
func (db *DB) UpsertEntry(row EntryRow, docChecksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := upsertEntry(tx, row); err != nil {
		return err
	}
	if err := setChecksum(tx, docChecksum); err != nil {
		return err
	}
	return tx.Commit()
}

// SetDocumentChecksum records docChecksum without touching entries.
func (db *DB) SetDocumentChecksum(docChecksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := setChecksum(tx, docChecksum); err != nil {
		return err
	}
	return tx.Commit()
}

func setChecksum(tx *sql.Tx, docChecksum string) error {
	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, docChecksumKey, docChecksum)
	if err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole index for rows and records the checksum of the
// document they came from.
func (db *DB) ReplaceAll(rows []EntryRow, docChecksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("index: clear entries: %w", err)
	}
	ftsClear(tx)

	for _, row := range rows {
		if err := upsertEntry(tx, row); err != nil {
			return err
		}
	}

	if err := setChecksum(tx, docChecksum); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertEntry(tx *sql.Tx, row EntryRow) error {
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err := tx.Exec(`
		INSERT INTO entries (id, notebook_id, notebook_name, title, scientific, tags,
		                     description, fun_fact, notes, author, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(notebook_id, id) DO UPDATE SET
			notebook_name = excluded.notebook_name,
			title         = excluded.title,
			scientific    = excluded.scientific,
			tags          = excluded.tags,
			description   = excluded.description,
			fun_fact      = excluded.fun_fact,
			notes         = excluded.notes,
			author        = excluded.author,
			image_url     = excluded.image_url
	`, row.ID, row.NotebookID, row.NotebookName, row.Title, row.Scientific, string(tagsJSON),
		row.Description, row.FunFact, row.Notes, row.Author, row.ImageURL)
	if err != nil {
		return fmt.Errorf("index: upsert entry: %w", err)
	}
	return ftsUpsert(tx, row, tags)
}

// DocumentChecksum returns the checksum recorded by the last ReplaceAll, or
// an empty string if the index has never been synced.
func (db *DB) DocumentChecksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, docChecksumKey).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: document checksum: %w", err)
	}
	return cs, nil
}

// Count returns the number of indexed entries.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
