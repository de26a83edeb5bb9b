package store

import (
	"encoding/json"
	"fmt"

	"repolens/internal/logging"
	"repolens/internal/parser"
)

// ReplaceSymbols swaps all symbols for a file in one transaction.
// Annotations are serialized per symbol as a JSON map of key -> values.
func (s *Store) ReplaceSymbols(file string, symbols []parser.Symbol, annotations []parser.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Group annotations by symbol ref. Valueless annotations are flags;
	// they store as "true" so consumers never see empty strings.
	annsByRef := make(map[string]map[string][]string)
	for _, ann := range annotations {
		if annsByRef[ann.Ref] == nil {
			annsByRef[ann.Ref] = make(map[string][]string)
		}
		value := ann.Value
		if value == "" {
			value = "true"
		}
		annsByRef[ann.Ref][ann.Key] = append(annsByRef[ann.Ref][ann.Key], value)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM symbols WHERE file = ?", file); err != nil {
		return fmt.Errorf("failed to clear symbols for %s: %w", file, err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO symbols
			(ref, kind, name, file, start_line, end_line, signature, parent, visibility, language, annotations, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sym := range symbols {
		annsJSON := ""
		if anns, ok := annsByRef[sym.Ref]; ok {
			data, err := json.Marshal(anns)
			if err == nil {
				annsJSON = string(data)
			}
		}

		if _, err := stmt.Exec(
			sym.Ref, string(sym.Kind), sym.Name, sym.File,
			sym.StartLine, sym.EndLine, sym.Signature, sym.Parent,
			string(sym.Visibility), sym.Language, annsJSON,
		); err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", sym.Ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logging.StoreDebug("Replaced %d symbols for %s", len(symbols), file)
	return nil
}

// SymbolRecord is one row of the symbols table.
type SymbolRecord struct {
	Ref         string
	Kind        string
	Name        string
	File        string
	StartLine   int
	EndLine     int
	Signature   string
	Parent      string
	Visibility  string
	Language    string
	Annotations map[string][]string
}

// SymbolsForFile returns all symbols stored for a file.
func (s *Store) SymbolsForFile(file string) ([]SymbolRecord, error) {
	return s.querySymbols(
		"SELECT ref, kind, name, file, start_line, end_line, signature, parent, visibility, language, annotations FROM symbols WHERE file = ? ORDER BY start_line",
		file,
	)
}

// FindSymbols looks up symbols by exact name, optionally filtered by kind.
func (s *Store) FindSymbols(name, kind string) ([]SymbolRecord, error) {
	if kind != "" {
		return s.querySymbols(
			"SELECT ref, kind, name, file, start_line, end_line, signature, parent, visibility, language, annotations FROM symbols WHERE name = ? AND kind = ? ORDER BY ref",
			name, kind,
		)
	}
	return s.querySymbols(
		"SELECT ref, kind, name, file, start_line, end_line, signature, parent, visibility, language, annotations FROM symbols WHERE name = ? ORDER BY ref",
		name,
	)
}

// SearchSymbols matches symbol names and signatures against a LIKE
// pattern. This is the keyword fallback when no embedding engine is
// configured.
func (s *Store) SearchSymbols(pattern string, limit int) ([]SymbolRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + pattern + "%"
	return s.querySymbols(
		"SELECT ref, kind, name, file, start_line, end_line, signature, parent, visibility, language, annotations FROM symbols WHERE name LIKE ? OR signature LIKE ? ORDER BY name LIMIT ?",
		like, like, limit,
	)
}

func (s *Store) querySymbols(query string, args ...interface{}) ([]SymbolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SymbolRecord
	for rows.Next() {
		var rec SymbolRecord
		var annsJSON string
		if err := rows.Scan(
			&rec.Ref, &rec.Kind, &rec.Name, &rec.File,
			&rec.StartLine, &rec.EndLine, &rec.Signature, &rec.Parent,
			&rec.Visibility, &rec.Language, &annsJSON,
		); err != nil {
			continue
		}
		if annsJSON != "" {
			json.Unmarshal([]byte(annsJSON), &rec.Annotations)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
