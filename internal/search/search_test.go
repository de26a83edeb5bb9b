package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repolens/internal/parser"
	"repolens/internal/store"
)

// cannedEngine returns a fixed vector per known text so similarity
// rankings in tests are deterministic.
type cannedEngine struct {
	vectors map[string][]float32
	fail    bool
}

func (e *cannedEngine) Embed(_ context.Context, text string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("backend down")
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (e *cannedEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *cannedEngine) Dimensions() int { return 3 }
func (e *cannedEngine) Name() string    { return "canned" }

func setupIndex(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	symbols := []parser.Symbol{
		{Ref: "go:db.go:OpenDatabase", Kind: parser.KindFunction, Name: "OpenDatabase",
			File: "/repo/db.go", StartLine: 5, Signature: "func OpenDatabase(path string) (*DB, error) {", Language: "go"},
		{Ref: "go:http.go:ServeRequests", Kind: parser.KindFunction, Name: "ServeRequests",
			File: "/repo/http.go", StartLine: 12, Signature: "func ServeRequests(addr string) error {", Language: "go"},
	}
	require.NoError(t, st.ReplaceSymbols("/repo/db.go", symbols[:1], nil))
	require.NoError(t, st.ReplaceSymbols("/repo/http.go", symbols[1:], nil))

	require.NoError(t, st.UpsertVector("go:db.go:OpenDatabase", "func OpenDatabase...",
		[]float32{1, 0, 0}, map[string]interface{}{"file": "/repo/db.go", "kind": "function", "line": float64(5)}))
	require.NoError(t, st.UpsertVector("go:http.go:ServeRequests", "func ServeRequests...",
		[]float32{0, 1, 0}, map[string]interface{}{"file": "/repo/http.go", "kind": "function", "line": float64(12)}))

	return st
}

func TestSearcher_Semantic(t *testing.T) {
	st := setupIndex(t)
	engine := &cannedEngine{vectors: map[string][]float32{
		"database stuff": {1, 0, 0},
		"web serving":    {0, 1, 0},
	}}
	s := New(st, engine)

	t.Run("ranks by similarity to the query", func(t *testing.T) {
		results, err := s.Search(context.Background(), "database stuff", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "go:db.go:OpenDatabase", results[0].Ref)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
		assert.Equal(t, "semantic", results[0].Source)
		assert.Equal(t, "/repo/db.go", results[0].File)
		assert.Equal(t, 5, results[0].Line)
	})

	t.Run("different query flips the ranking", func(t *testing.T) {
		results, err := s.Search(context.Background(), "web serving", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "go:http.go:ServeRequests", results[0].Ref)
	})

	t.Run("limit truncates", func(t *testing.T) {
		results, err := s.Search(context.Background(), "database stuff", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestSearcher_KeywordFallback(t *testing.T) {
	st := setupIndex(t)

	t.Run("nil engine uses keyword matching", func(t *testing.T) {
		s := New(st, nil)
		results, err := s.Search(context.Background(), "Database", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "go:db.go:OpenDatabase", results[0].Ref)
		assert.Equal(t, "keyword", results[0].Source)
		assert.Zero(t, results[0].Similarity)
	})

	t.Run("failing backend falls back to keyword", func(t *testing.T) {
		s := New(st, &cannedEngine{fail: true})
		results, err := s.Search(context.Background(), "ServeRequests", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "keyword", results[0].Source)
	})

	t.Run("no match means empty result, not error", func(t *testing.T) {
		s := New(st, nil)
		results, err := s.Search(context.Background(), "zzz_nothing", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestSearcher_Hybrid(t *testing.T) {
	st := setupIndex(t)
	engine := &cannedEngine{vectors: map[string][]float32{
		"OpenDatabase": {1, 0, 0},
	}}
	s := New(st, engine)

	t.Run("dedupes by ref, semantic first", func(t *testing.T) {
		// "OpenDatabase" matches both semantically and by keyword
		results, err := s.Hybrid(context.Background(), "OpenDatabase", 10)
		require.NoError(t, err)

		refs := make(map[string]int)
		for _, r := range results {
			refs[r.Ref]++
		}
		assert.Equal(t, 1, refs["go:db.go:OpenDatabase"])
		assert.Equal(t, "semantic", results[0].Source)
	})

	t.Run("keyword only when engine fails", func(t *testing.T) {
		s := New(st, &cannedEngine{fail: true})
		results, err := s.Hybrid(context.Background(), "ServeRequests", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "keyword", results[0].Source)
	})

	t.Run("respects limit", func(t *testing.T) {
		results, err := s.Hybrid(context.Background(), "OpenDatabase", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}
