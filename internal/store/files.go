package store

import (
	"database/sql"
	"fmt"

	"repolens/internal/logging"
)

// FileRecord is one row of the files table.
type FileRecord struct {
	Path    string
	Lang    string
	Size    int64
	ModTime int64
	Hash    string
}

// UpsertFile inserts or replaces a file record keyed on path.
func (s *Store) UpsertFile(rec FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO files (path, lang, size, modtime, hash, indexed_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			lang = excluded.lang,
			size = excluded.size,
			modtime = excluded.modtime,
			hash = excluded.hash,
			indexed_at = CURRENT_TIMESTAMP`,
		rec.Path, rec.Lang, rec.Size, rec.ModTime, rec.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert file %s: %w", rec.Path, err)
	}
	return nil
}

// GetFile returns the record for a path, or sql.ErrNoRows via the
// wrapped error when absent.
func (s *Store) GetFile(path string) (*FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec FileRecord
	err := s.db.QueryRow(
		"SELECT path, lang, size, modtime, hash FROM files WHERE path = ?", path,
	).Scan(&rec.Path, &rec.Lang, &rec.Size, &rec.ModTime, &rec.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}
	return &rec, nil
}

// FileHash returns the stored hash for a path, or "" when the file
// has never been indexed.
func (s *Store) FileHash(path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hash string
	err := s.db.QueryRow("SELECT hash FROM files WHERE path = ?", path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// DeleteFile removes a file and everything derived from it
// (symbols and their vectors).
func (s *Store) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM vectors WHERE ref IN (SELECT ref FROM symbols WHERE file = ?)", path,
	); err != nil {
		return fmt.Errorf("failed to delete vectors for %s: %w", path, err)
	}
	if _, err := tx.Exec("DELETE FROM symbols WHERE file = ?", path); err != nil {
		return fmt.Errorf("failed to delete symbols for %s: %w", path, err)
	}
	if _, err := tx.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logging.StoreDebug("Deleted file and derived rows: %s", path)
	return nil
}

// ListFiles returns all indexed paths, optionally filtered by language.
func (s *Store) ListFiles(lang string) ([]FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT path, lang, size, modtime, hash FROM files ORDER BY path"
	args := []interface{}{}
	if lang != "" {
		query = "SELECT path, lang, size, modtime, hash FROM files WHERE lang = ? ORDER BY path"
		args = append(args, lang)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var rec FileRecord
		if err := rows.Scan(&rec.Path, &rec.Lang, &rec.Size, &rec.ModTime, &rec.Hash); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
