//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the entries table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ EntryRow, _ []string) error { return nil }

func ftsClear(_ *sql.Tx) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, notebook_id, notebook_name, title, scientific, substr(description, 1, 200)
		FROM entries
		WHERE title LIKE ? OR scientific LIKE ? OR description LIKE ? OR tags LIKE ? OR notes LIKE ?
		ORDER BY title
		LIMIT ?
	`, like, like, like, like, like, limit)
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
