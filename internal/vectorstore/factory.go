// Package vectorstore provides vector storage implementations.
package vectorstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/config"
)

// NewStore creates a new Store based on the configuration.
//
// The factory examines the VectorStoreConfig.Provider field and creates the
// matching implementation:
//   - "chromem" (default): embedded ChromemStore (no external deps)
//   - "qdrant": QdrantStore (requires external Qdrant server)
//   - "memory": non-persistent MemoryStore (tests, throwaway runs)
//
// The chromem provider is recommended for most users as it requires no setup.
//
// Example usage:
//
//	store, err := vectorstore.NewStore(cfg.VectorStore, embedder, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
func NewStore(cfg config.VectorStoreConfig, embedder Embedder, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case "chromem", "":
		// Default: chromem (embedded, zero external dependencies)
		chromemCfg := ChromemConfig{
			Path:       cfg.Chromem.Path,
			Compress:   cfg.Chromem.Compress,
			VectorSize: cfg.VectorSize,
		}
		return NewChromemStore(chromemCfg, embedder, logger)

	case "qdrant":
		// Qdrant: requires external Qdrant server
		qdrantCfg := QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey.Value(),
			UseTLS:     cfg.Qdrant.UseTLS,
			VectorSize: uint64(cfg.VectorSize),
		}
		return NewQdrantStore(qdrantCfg, embedder)

	case "memory":
		// Memory: non-persistent, embedder-free
		return NewMemoryStore(logger), nil

	default:
		return nil, fmt.Errorf("unsupported vectorstore provider: %s (supported: chromem, qdrant, memory)", cfg.Provider)
	}
}
