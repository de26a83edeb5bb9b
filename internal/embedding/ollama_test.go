package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "embeddinggemma", req.Model)
		assert.NotEmpty(t, req.Prompt)
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEngine_Embed(t *testing.T) {
	srv := newOllamaTestServer(t)
	engine, err := NewOllamaEngine(srv.URL, "")
	require.NoError(t, err)

	vec, err := engine.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaEngine_EmbedBatch(t *testing.T) {
	srv := newOllamaTestServer(t)
	engine, err := NewOllamaEngine(srv.URL, "")
	require.NoError(t, err)

	vecs, err := engine.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, 3)
	}
}

func TestOllamaEngine_HealthCheck(t *testing.T) {
	srv := newOllamaTestServer(t)
	engine, err := NewOllamaEngine(srv.URL, "")
	require.NoError(t, err)
	assert.NoError(t, engine.HealthCheck(context.Background()))
}

func TestOllamaEngine_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	engine, err := NewOllamaEngine(srv.URL, "missing-model")
	require.NoError(t, err)

	_, err = engine.Embed(context.Background(), "text")
	assert.ErrorContains(t, err, "404")
}
