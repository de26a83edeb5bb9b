package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"repolens/internal/embedding"
	"repolens/internal/logging"
)

// VectorEntry is one row of the vectors table.
type VectorEntry struct {
	ID        int64
	Ref       string
	Content   string
	Embedding []float32
	Metadata  map[string]interface{}
	CreatedAt time.Time
}

// UpsertVector stores an embedded snippet keyed on its symbol ref.
func (s *Store) UpsertVector(ref, content string, vec []float32, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var embJSON interface{}
	if vec != nil {
		data, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("failed to serialize embedding: %w", err)
		}
		embJSON = string(data)
	}

	metaJSON, _ := json.Marshal(metadata)

	_, err := s.db.Exec(`
		INSERT INTO vectors (ref, content, embedding, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata`,
		ref, content, embJSON, string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vector %s: %w", ref, err)
	}
	return nil
}

// AllVectors streams every embedded row. The search layer computes
// similarity in-process; with a typical repository's symbol count this
// brute-force pass stays well under query-time budgets.
func (s *Store) AllVectors() ([]VectorEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, ref, content, embedding, metadata, created_at FROM vectors WHERE embedding IS NOT NULL",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []VectorEntry
	for rows.Next() {
		var entry VectorEntry
		var embJSON, metaJSON string
		if err := rows.Scan(&entry.ID, &entry.Ref, &entry.Content, &embJSON, &metaJSON, &entry.CreatedAt); err != nil {
			continue
		}
		if err := json.Unmarshal([]byte(embJSON), &entry.Embedding); err != nil {
			continue
		}
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &entry.Metadata)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ReembedMissing generates embeddings for vectors stored without one,
// in batches. Useful after switching from keyword-only indexing to an
// embedding provider.
func (s *Store) ReembedMissing(ctx context.Context, engine embedding.Engine) (int, error) {
	if engine == nil {
		return 0, fmt.Errorf("no embedding engine configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT id, content FROM vectors WHERE embedding IS NULL")
	if err != nil {
		return 0, err
	}

	type pending struct {
		id      int64
		content string
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.content); err != nil {
			continue
		}
		todo = append(todo, p)
	}
	rows.Close()

	if len(todo) == 0 {
		return 0, nil
	}

	const batchSize = 32
	updated := 0
	for i := 0; i < len(todo); i += batchSize {
		end := i + batchSize
		if end > len(todo) {
			end = len(todo)
		}
		batch := todo[i:end]

		texts := make([]string, len(batch))
		for j, p := range batch {
			texts[j] = p.content
		}

		vecs, err := engine.EmbedBatch(ctx, texts)
		if err != nil {
			return updated, fmt.Errorf("failed to embed batch: %w", err)
		}
		if len(vecs) != len(batch) {
			return updated, fmt.Errorf("engine returned %d vectors for batch of %d", len(vecs), len(batch))
		}

		for j, p := range batch {
			data, _ := json.Marshal(vecs[j])
			if _, err := s.db.Exec("UPDATE vectors SET embedding = ? WHERE id = ?", string(data), p.id); err != nil {
				return updated, fmt.Errorf("failed to update vector %d: %w", p.id, err)
			}
			updated++
		}
		logging.StoreDebug("Reembedded batch %d-%d of %d", i, end, len(todo))
	}

	return updated, nil
}
