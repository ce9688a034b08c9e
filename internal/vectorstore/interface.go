// Package vectorstore defines the interface for vector storage operations.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the backing store is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores, hyphens, 1-128 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_-]{1,128}$`)

// ValidateCollectionName validates a collection name against naming rules.
// Rejects: uppercase, special chars, path traversal, spaces.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must match pattern ^[a-z0-9_-]{1,128}$, got %q", ErrInvalidCollectionName, name)
	}
	return nil
}

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. Implementations can use local models
// (FastEmbed/ONNX) or remote APIs (TEI, OpenAI).
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store manages named collections of embedded documents.
//
// This interface is transport-agnostic. Implementations:
//   - ChromemStore: embedded chromem-go (default)
//   - QdrantStore: external Qdrant gRPC client
//   - MemoryStore: non-persistent, for tests and throwaway runs
type Store interface {
	// Collection returns a handle for the named collection, creating the
	// collection if it does not exist. Handles are cached per name.
	// Concurrent callers may race to create; creation is idempotent so the
	// race is harmless.
	Collection(ctx context.Context, name string) (Collection, error)

	// ListCollections returns the names of all existing collections.
	ListCollections(ctx context.Context) ([]string, error)

	// Close closes the store connection and releases resources.
	Close() error
}

// Collection is one named set of embedded documents.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Add embeds and stores a document. An existing document with the same
	// ID is replaced.
	Add(ctx context.Context, doc Document) error

	// Get fetches a document by ID. A missing document is reported through
	// the boolean, not an error.
	Get(ctx context.Context, id string) (*Document, bool, error)

	// Update replaces the stored document with the same ID. The content is
	// re-embedded.
	Update(ctx context.Context, doc Document) error

	// Delete removes a document by ID. Deleting an absent ID is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Query returns up to k documents most similar to the query text,
	// ordered by descending similarity score.
	Query(ctx context.Context, query string, k int) ([]SearchResult, error)

	// List returns every document in the collection. Order is
	// implementation-defined but stable for a given collection state.
	List(ctx context.Context) ([]Document, error)
}
