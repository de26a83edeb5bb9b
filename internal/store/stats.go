package store

// Stats summarizes the index contents.
type Stats struct {
	Files           int64
	Symbols         int64
	Vectors         int64
	WithEmbeddings  int64
	FilesByLanguage map[string]int64
	SymbolsByKind   map[string]int64
}

// Stats computes index counters for the stats command.
func (s *Store) Stats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		FilesByLanguage: make(map[string]int64),
		SymbolsByKind:   make(map[string]int64),
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&stats.Files); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&stats.Symbols); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM vectors").Scan(&stats.Vectors); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM vectors WHERE embedding IS NOT NULL").Scan(&stats.WithEmbeddings); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT lang, COUNT(*) FROM files GROUP BY lang")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var lang string
		var count int64
		if err := rows.Scan(&lang, &count); err != nil {
			continue
		}
		stats.FilesByLanguage[lang] = count
	}
	rows.Close()

	rows, err = s.db.Query("SELECT kind, COUNT(*) FROM symbols GROUP BY kind")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			continue
		}
		stats.SymbolsByKind[kind] = count
	}
	rows.Close()

	return stats, nil
}
