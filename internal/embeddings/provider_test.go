package embeddings

import (
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ProviderConfig
		wantError bool
	}{
		{
			name: "tei provider with valid config",
			cfg: ProviderConfig{
				Provider: "tei",
				BaseURL:  "http://localhost:8080/v1",
				Model:    "BAAI/bge-small-en-v1.5",
			},
			wantError: false,
		},
		{
			name: "tei provider without base URL",
			cfg: ProviderConfig{
				Provider: "tei",
				Model:    "BAAI/bge-small-en-v1.5",
			},
			wantError: true,
		},
		{
			name: "tei provider without model",
			cfg: ProviderConfig{
				Provider: "tei",
				BaseURL:  "http://localhost:8080/v1",
			},
			wantError: true,
		},
		{
			name: "unknown provider",
			cfg: ProviderConfig{
				Provider: "unknown",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.cfg)
			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			if provider != nil {
				provider.Close()
			}
		})
	}
}

func TestTEIProvider_Dimension(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		wantDim int
	}{
		{"small model", "BAAI/bge-small-en-v1.5", 384},
		{"base model", "BAAI/bge-base-en-v1.5", 768},
		{"mini model", "sentence-transformers/all-MiniLM-L6-v2", 384},
		{"unknown defaults to 384", "unknown-model", 384},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ProviderConfig{
				Provider: "tei",
				BaseURL:  "http://localhost:8080/v1",
				Model:    tt.model,
			}

			provider, err := NewProvider(cfg)
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			defer provider.Close()

			if provider.Dimension() != tt.wantDim {
				t.Errorf("Dimension() = %d, want %d", provider.Dimension(), tt.wantDim)
			}
		})
	}
}

func TestDetectDimensionFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"BAAI/bge-small-en-v1.5", 384},
		{"BAAI/bge-base-en-v1.5", 768},
		{"Alibaba-NLP/gte-base-en-v1.5", 768},
		{"some-large-model", 1024},
		{"all-mini-model", 384},
		{"completely-unknown", 384},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := detectDimensionFromModel(tt.model); got != tt.want {
				t.Errorf("detectDimensionFromModel(%q) = %d, want %d", tt.model, got, tt.want)
			}
		})
	}
}
