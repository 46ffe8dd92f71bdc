package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// DocRow represents a row in the docs table.
type DocRow struct {
	Path      string
	Title     string
	Checksum  string
	Keywords  []string
	Phase     int
	System    string
	UpdatedAt time.Time
}

// SearchRow represents one lexical search hit.
type SearchRow struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertDocument inserts or replaces a document and its FTS entry
// within a transaction.
func (db *DB) UpsertDocument(row DocRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	kwJSON, _ := json.Marshal(row.Keywords)

	_, err = tx.Exec(`
		INSERT INTO docs (path, title, checksum, keywords, phase, system, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			keywords   = excluded.keywords,
			phase      = excluded.phase,
			system     = excluded.system,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Path, row.Title, row.Checksum, string(kwJSON), row.Phase, row.System, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert doc: %w", err)
	}

	if err := ftsUpsert(tx, row.Path, row.Title, body, row.Keywords); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDocument removes a document and its FTS entry.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM docs WHERE path = ?`, path)
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty
// string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM docs WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocuments returns a page of documents ordered by path, plus the
// total count.
func (db *DB) ListDocuments(limit, offset int) ([]DocRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM docs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count docs: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, title, checksum, keywords, phase, system, updated_at
		FROM docs ORDER BY path LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list docs: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		var r DocRow
		var kwJSON string
		if err := rows.Scan(&r.Path, &r.Title, &r.Checksum, &kwJSON, &r.Phase, &r.System, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(kwJSON), &r.Keywords)
		out = append(out, r)
	}
	return out, total, rows.Err()
}
