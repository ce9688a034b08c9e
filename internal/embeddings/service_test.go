package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmbeddingServer serves the OpenAI-compatible /embeddings endpoint the
// langchaingo client talks to, returning a fixed-dimension vector per input.
func newEmbeddingServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type datum struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Object string  `json:"object"`
			Data   []datum `json:"data"`
			Model  string  `json:"model"`
			Usage  struct {
				PromptTokens int `json:"prompt_tokens"`
				TotalTokens  int `json:"total_tokens"`
			} `json:"usage"`
		}{
			Object: "list",
			Model:  req.Model,
		}
		for i, text := range req.Input {
			resp.Data = append(resp.Data, datum{
				Object:    "embedding",
				Embedding: []float32{float32(len(text)), 1, 0, 0},
				Index:     i,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}))
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "http://localhost:8080/v1", Model: "BAAI/bge-small-en-v1.5"}, false},
		{"missing base URL", Config{Model: "BAAI/bge-small-en-v1.5"}, true},
		{"missing model", Config{BaseURL: "http://localhost:8080/v1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServiceEmbedDocuments(t *testing.T) {
	ts := newEmbeddingServer(t)
	defer ts.Close()

	svc, err := NewService(Config{
		BaseURL: ts.URL,
		Model:   "BAAI/bge-small-en-v1.5",
	})
	require.NoError(t, err)

	vectors, err := svc.EmbedDocuments(context.Background(), []string{"hello", "wider text"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 4)
	assert.Equal(t, float32(len("hello")), vectors[0][0])
	assert.Equal(t, float32(len("wider text")), vectors[1][0])
}

func TestServiceEmbedQuery(t *testing.T) {
	ts := newEmbeddingServer(t)
	defer ts.Close()

	svc, err := NewService(Config{
		BaseURL: ts.URL,
		Model:   "BAAI/bge-small-en-v1.5",
	})
	require.NoError(t, err)

	vector, err := svc.EmbedQuery(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, vector, 4)
	assert.Equal(t, float32(len("query")), vector[0])
}

func TestServiceEmptyInput(t *testing.T) {
	ts := newEmbeddingServer(t)
	defer ts.Close()

	svc, err := NewService(Config{
		BaseURL: ts.URL,
		Model:   "BAAI/bge-small-en-v1.5",
	})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestServiceServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc, err := NewService(Config{
		BaseURL: ts.URL,
		Model:   "BAAI/bge-small-en-v1.5",
	})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)

	_, err = svc.EmbedQuery(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}
