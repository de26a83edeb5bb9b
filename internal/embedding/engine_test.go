package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-9)
	})

	t.Run("scaled vectors keep similarity 1", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 2}, []float32{10, 20})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-6)
	})

	t.Run("zero vector yields 0", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 2})
		require.NoError(t, err)
		assert.Zero(t, sim)
	})

	t.Run("dimension mismatch errors", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
		assert.Error(t, err)
	})

	t.Run("45 degrees", func(t *testing.T) {
		sim, err := CosineSimilarity([]float32{1, 0}, []float32{1, 1})
		require.NoError(t, err)
		assert.InDelta(t, 1/math.Sqrt2, sim, 1e-6)
	})
}

func TestTopK(t *testing.T) {
	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},    // orthogonal
		{1, 0},    // identical
		{-1, 0},   // opposite
		{1, 1},    // 45 degrees
		{1, 2, 3}, // wrong dimensions, skipped
	}

	t.Run("ranks by descending similarity", func(t *testing.T) {
		results := TopK(query, corpus, 10)
		require.Len(t, results, 4)
		assert.Equal(t, 1, results[0].Index)
		assert.Equal(t, 3, results[1].Index)
		assert.Equal(t, 0, results[2].Index)
		assert.Equal(t, 2, results[3].Index)
	})

	t.Run("truncates to k", func(t *testing.T) {
		results := TopK(query, corpus, 2)
		require.Len(t, results, 2)
		assert.Equal(t, 1, results[0].Index)
	})

	t.Run("k defaults when non-positive", func(t *testing.T) {
		results := TopK(query, corpus, 0)
		assert.Len(t, results, 4)
	})

	t.Run("empty corpus", func(t *testing.T) {
		assert.Empty(t, TopK(query, nil, 5))
	})
}

func TestNewEngine(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewEngine(Config{Provider: "nope"})
		assert.Error(t, err)
	})

	t.Run("empty provider", func(t *testing.T) {
		_, err := NewEngine(Config{})
		assert.Error(t, err)
	})

	t.Run("ollama defaults", func(t *testing.T) {
		engine, err := NewEngine(Config{Provider: "ollama"})
		require.NoError(t, err)
		assert.Equal(t, "ollama:embeddinggemma", engine.Name())
		assert.Equal(t, 768, engine.Dimensions())
	})

	t.Run("genai requires an API key", func(t *testing.T) {
		_, err := NewEngine(Config{Provider: "genai"})
		assert.Error(t, err)
	})
}

func TestGenAIEngineConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		engine, err := NewGenAIEngine("test-key", "", "")
		require.NoError(t, err)
		assert.Equal(t, "genai:gemini-embedding-001", engine.Name())
		assert.Equal(t, "SEMANTIC_SIMILARITY", engine.taskType)
	})

	t.Run("unknown task types fall back", func(t *testing.T) {
		engine, err := NewGenAIEngine("test-key", "", "bogus")
		require.NoError(t, err)
		assert.Equal(t, "SEMANTIC_SIMILARITY", engine.taskType)
	})

	t.Run("known task types pass through", func(t *testing.T) {
		engine, err := NewGenAIEngine("test-key", "", "CODE_RETRIEVAL_QUERY")
		require.NoError(t, err)
		assert.Equal(t, "CODE_RETRIEVAL_QUERY", engine.taskType)
	})
}
