//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			id UNINDEXED,
			notebook_id UNINDEXED,
			title,
			scientific,
			description,
			tags,
			notes,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, row EntryRow, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM entries_fts WHERE id = ? AND notebook_id = ?`, row.ID, row.NotebookID)
	_, err := tx.Exec(`
		INSERT INTO entries_fts (id, notebook_id, title, scientific, description, tags, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, row.ID, row.NotebookID, row.Title, row.Scientific, row.Description, strings.Join(tags, " "), row.Notes)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsClear(tx *sql.Tx) {
	_, _ = tx.Exec(`DELETE FROM entries_fts`)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.id,
		       f.notebook_id,
		       e.notebook_name,
		       e.title,
		       e.scientific,
		       snippet(entries_fts, 4, '<b>', '</b>', '...', 32)
		FROM entries_fts f
		JOIN entries e ON e.id = f.id AND e.notebook_id = f.notebook_id
		WHERE entries_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.EntryID, &r.NotebookID, &r.NotebookName, &r.Title, &r.Scientific, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
