package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/models"
)

// fakeOllama answers /api/embed with a vector derived from the input length
func fakeOllama(t *testing.T, failures int32) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		n := atomic.AddInt32(&calls, 1)
		if n <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"model is loading"}`))
			return
		}

		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":      req.Model,
			"embeddings": [][]float32{{float32(len(req.Input)), 1, 0}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestOllamaEmbedText(t *testing.T) {
	srv, _ := fakeOllama(t, 0)

	e, err := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	require.NoError(t, err)

	vec, err := e.EmbedText(context.Background(), "RF spring")
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 1, 0}, vec)
	assert.Equal(t, "nomic-embed-text", e.ModelName())
}

func TestOllamaEmbedTextRetries(t *testing.T) {
	srv, calls := fakeOllama(t, 2)

	e, err := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	require.NoError(t, err)
	e.RetryDelay = time.Millisecond

	_, err = e.EmbedText(context.Background(), "shock")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestOllamaEmbedTextGivesUp(t *testing.T) {
	srv, _ := fakeOllama(t, 100)

	e, err := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	require.NoError(t, err)
	e.MaxRetries = 1
	e.RetryDelay = time.Millisecond

	_, err = e.EmbedText(context.Background(), "shock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 1 retries")
}

func TestOllamaEmbedTextEmptyIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"nomic-embed-text","embeddings":[]}`))
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	require.NoError(t, err)

	_, err = e.EmbedText(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewUsesSchemelessOllamaHost(t *testing.T) {
	srv, _ := fakeOllama(t, 0)
	hostport := strings.TrimPrefix(srv.URL, "http://")

	cfg := config.Default()
	cfg.Ollama.Host = ""
	t.Setenv("OLLAMA_HOST", hostport)
	e, err := New(cfg)
	require.NoError(t, err)
	_, err = e.EmbedText(context.Background(), "RF spring")
	require.NoError(t, err)

	t.Setenv("OLLAMA_HOST", "")
	cfg.Ollama.Host = strings.Replace(hostport, "127.0.0.1", "localhost", 1)
	e, err = New(cfg)
	require.NoError(t, err)
	_, err = e.EmbedText(context.Background(), "RF spring")
	require.NoError(t, err)
}

func TestOllamaEmbedDocumentsProgress(t *testing.T) {
	srv, _ := fakeOllama(t, 0)

	e, err := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	require.NoError(t, err)
	e.MaxConcurrent = 2

	docs := []models.Document{
		{Source: "a.txt", Content: "a"},
		{Source: "b.txt", Content: "bb"},
		{Source: "c.txt", Content: "ccc"},
	}

	var last int
	out, err := e.EmbedDocuments(context.Background(), docs, func(processed, total int) {
		assert.Equal(t, 3, total)
		last = processed
	})
	require.NoError(t, err)
	assert.Equal(t, 3, last)
	for i, d := range out {
		assert.Equal(t, float32(i+1), d.Embedding[0])
	}
}

func TestNewOllamaEmbedderRejectsBadHost(t *testing.T) {
	_, err := NewOllamaEmbedder("http://[::1", "m")
	assert.Error(t, err)
}

func TestOpenAIEmbedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.5,0.25]}],
			"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL+"/v1", "sk-test", "text-embedding-3-small")
	vec, err := e.EmbedText(context.Background(), "LR shock")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := config.Default()
	e, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)

	cfg.Provider = "openai"
	e, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, e)

	cfg.Provider = "bogus"
	_, err = New(cfg)
	assert.Error(t, err)
}
