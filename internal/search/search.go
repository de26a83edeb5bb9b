// Package search answers queries against the index. With an embedding
// engine configured it runs true semantic search (query embedding vs
// stored vectors, cosine similarity); without one it falls back to
// keyword matching over symbol names and signatures. Hybrid mode merges
// both result sets, semantic first.
package search

import (
	"context"
	"fmt"

	"repolens/internal/embedding"
	"repolens/internal/logging"
	"repolens/internal/store"
)

// Result is a single search hit.
type Result struct {
	Ref        string  `json:"ref"`
	File       string  `json:"file"`
	Line       int     `json:"line"`
	Kind       string  `json:"kind"`
	Language   string  `json:"language"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"` // 0 for keyword hits
	Source     string  `json:"source"`     // "semantic" or "keyword"
}

// Searcher runs queries against a store, optionally semantic.
type Searcher struct {
	store  *store.Store
	engine embedding.Engine // nil = keyword only
}

// New creates a Searcher. engine may be nil.
func New(st *store.Store, engine embedding.Engine) *Searcher {
	return &Searcher{store: st, engine: engine}
}

// Search runs the best available strategy for the query.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	if s.engine == nil {
		logging.SearchDebug("No embedding engine, keyword search for %q", query)
		return s.keyword(query, limit)
	}

	semantic, err := s.semantic(ctx, query, limit)
	if err != nil {
		// A dead embedding backend should not make search unusable
		logging.Get(logging.CategorySearch).Warn("Semantic search failed, falling back to keyword: %v", err)
		return s.keyword(query, limit)
	}
	return semantic, nil
}

// Hybrid merges semantic and keyword results, semantic first,
// deduplicated by ref.
func (s *Searcher) Hybrid(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	var merged []Result
	seen := make(map[string]bool)

	if s.engine != nil {
		semantic, err := s.semantic(ctx, query, limit)
		if err != nil {
			logging.Get(logging.CategorySearch).Warn("Hybrid: semantic leg failed: %v", err)
		} else {
			for _, r := range semantic {
				if !seen[r.Ref] {
					seen[r.Ref] = true
					merged = append(merged, r)
				}
			}
		}
	}

	keyword, err := s.keyword(query, limit)
	if err != nil {
		if len(merged) > 0 {
			return merged, nil
		}
		return nil, err
	}
	for _, r := range keyword {
		if len(merged) >= limit {
			break
		}
		if !seen[r.Ref] {
			seen[r.Ref] = true
			merged = append(merged, r)
		}
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// semantic embeds the query and ranks stored vectors by cosine similarity.
func (s *Searcher) semantic(ctx context.Context, query string, limit int) ([]Result, error) {
	timer := logging.StartTimer(logging.CategorySearch, "semantic search")
	defer timer.Stop()

	queryVec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	entries, err := s.store.AllVectors()
	if err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	corpus := make([][]float32, len(entries))
	for i, e := range entries {
		corpus[i] = e.Embedding
	}

	top := embedding.TopK(queryVec, corpus, limit)

	results := make([]Result, 0, len(top))
	for _, hit := range top {
		entry := entries[hit.Index]
		r := Result{
			Ref:        entry.Ref,
			Snippet:    firstLine(entry.Content),
			Similarity: hit.Similarity,
			Source:     "semantic",
		}
		if entry.Metadata != nil {
			if v, ok := entry.Metadata["file"].(string); ok {
				r.File = v
			}
			if v, ok := entry.Metadata["kind"].(string); ok {
				r.Kind = v
			}
			if v, ok := entry.Metadata["language"].(string); ok {
				r.Language = v
			}
			if v, ok := entry.Metadata["line"].(float64); ok {
				r.Line = int(v)
			}
		}
		results = append(results, r)
	}

	logging.SearchDebug("Semantic search %q: %d hits from %d vectors", query, len(results), len(entries))
	return results, nil
}

// keyword matches the query against symbol names and signatures.
func (s *Searcher) keyword(query string, limit int) ([]Result, error) {
	records, err := s.store.SearchSymbols(query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		results = append(results, Result{
			Ref:      rec.Ref,
			File:     rec.File,
			Line:     rec.StartLine,
			Kind:     rec.Kind,
			Language: rec.Language,
			Snippet:  rec.Signature,
			Source:   "keyword",
		})
	}
	return results, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
