// Package vectorstore provides vector storage implementations.
package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("memoryd.vectorstore.chromem")

// ChromemConfig holds configuration for chromem-go embedded vector database.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "~/.config/memoryd/vectorstore"
	Path string

	// Compress enables gzip compression for stored data.
	// Defaults to false (Go zero value). Set explicitly if compression is desired.
	Compress bool

	// VectorSize is the expected embedding dimension.
	// Must match the embedder's output dimension.
	// Default: 384 (for FastEmbed bge-small-en-v1.5)
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.config/memoryd/vectorstore"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 384
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements the Store interface using chromem-go.
//
// chromem-go is an embeddable vector database with zero third-party
// dependencies. It provides in-memory storage with persistence to gob files,
// so no external database service is needed.
type ChromemStore struct {
	db       *chromem.DB
	embedder Embedder
	config   ChromemConfig
	logger   *zap.Logger

	// collections caches Collection handles by name.
	collections sync.Map
}

// NewChromemStore creates a new ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	expandedPath, err := expandChromemPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}

	if err := os.MkdirAll(expandedPath, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", expandedPath, err)
	}

	db, err := chromem.NewPersistentDB(expandedPath, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	store := &ChromemStore{
		db:       db,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}

	logger.Info("ChromemStore initialized",
		zap.String("path", expandedPath),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", config.VectorSize),
	)

	return store, nil
}

// expandChromemPath expands ~ to home directory.
func expandChromemPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// createEmbeddingFunc creates a chromem.EmbeddingFunc from our Embedder interface.
func (s *ChromemStore) createEmbeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// Collection returns a handle for the named collection, creating it if needed.
func (s *ChromemStore) Collection(ctx context.Context, name string) (Collection, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Collection")
	defer span.End()

	span.SetAttributes(attribute.String("collection", name))

	if cached, ok := s.collections.Load(name); ok {
		span.SetStatus(codes.Ok, "cached")
		return cached.(*chromemCollection), nil
	}

	if err := ValidateCollectionName(name); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Must pass embedding function, not nil, because chromem-go sets the
	// default OpenAI embedder when nil is passed for persisted collections.
	col, err := s.db.GetOrCreateCollection(name, nil, s.createEmbeddingFunc())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("getting/creating collection %s: %w", name, err)
	}

	handle := &chromemCollection{
		name:  name,
		col:   col,
		store: s,
	}

	// Concurrent creators race here; last write wins and both handles wrap
	// the same underlying chromem collection.
	actual, _ := s.collections.LoadOrStore(name, handle)

	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("opened chromem collection", zap.String("collection", name))

	return actual.(*chromemCollection), nil
}

// ListCollections returns a list of all collection names.
func (s *ChromemStore) ListCollections(ctx context.Context) ([]string, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.ListCollections")
	defer span.End()

	collectionsMap := s.db.ListCollections()
	names := make([]string, 0, len(collectionsMap))
	for name := range collectionsMap {
		names = append(names, name)
	}
	sort.Strings(names)

	span.SetAttributes(attribute.Int("collection_count", len(names)))
	span.SetStatus(codes.Ok, "success")

	return names, nil
}

// Close closes the ChromemStore.
// chromem-go persists synchronously on every write, no explicit close needed.
func (s *ChromemStore) Close() error {
	s.logger.Info("chromem store closed")
	return nil
}

// chromemCollection is a Collection handle backed by one chromem collection.
type chromemCollection struct {
	name  string
	col   *chromem.Collection
	store *ChromemStore
}

// Name returns the collection name.
func (c *chromemCollection) Name() string {
	return c.name
}

// Add embeds and stores a document. chromem's AddDocument replaces any
// existing document with the same ID.
func (c *chromemCollection) Add(ctx context.Context, doc Document) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemCollection.Add")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.String("document_id", doc.ID),
	)

	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidConfig)
	}

	embeddings, err := c.store.embedder.EmbedDocuments(ctx, []string{doc.Content})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	chromemDoc := chromem.Document{
		ID:        doc.ID,
		Content:   doc.Content,
		Metadata:  convertMetadataToString(doc.Metadata),
		Embedding: embeddings[0],
	}

	if err := c.col.AddDocument(ctx, chromemDoc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding document to %s: %w", c.name, err)
	}

	span.SetStatus(codes.Ok, "success")

	c.store.logger.Debug("added document to chromem",
		zap.String("collection", c.name),
		zap.String("id", doc.ID),
	)

	return nil
}

// Get fetches a document by ID.
// chromem's GetByID fails only when the ID is absent, so any error maps to
// not-found.
func (c *chromemCollection) Get(ctx context.Context, id string) (*Document, bool, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemCollection.Get")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.String("document_id", id),
	)

	chromemDoc, err := c.col.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Ok, "not found")
		return nil, false, nil
	}

	doc := &Document{
		ID:       chromemDoc.ID,
		Content:  chromemDoc.Content,
		Metadata: convertMetadataFromString(chromemDoc.Metadata),
	}

	span.SetStatus(codes.Ok, "success")
	return doc, true, nil
}

// Update replaces the stored document with the same ID.
func (c *chromemCollection) Update(ctx context.Context, doc Document) error {
	// AddDocument upserts by ID, so update and add share the write path.
	return c.Add(ctx, doc)
}

// Delete removes a document by ID.
func (c *chromemCollection) Delete(ctx context.Context, id string) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemCollection.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.String("document_id", id),
	)

	if err := c.col.Delete(ctx, nil, nil, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting document from %s: %w", c.name, err)
	}

	span.SetStatus(codes.Ok, "success")

	c.store.logger.Debug("deleted document from chromem",
		zap.String("collection", c.name),
		zap.String("id", id),
	)

	return nil
}

// Query performs similarity search in the collection.
func (c *chromemCollection) Query(ctx context.Context, query string, k int) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemCollection.Query")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.Int("k", k),
	)

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	// Cap k at collection size (chromem requires nResults <= doc count).
	docCount := c.col.Count()
	if docCount == 0 {
		return []SearchResult{}, nil
	}
	if k > docCount {
		k = docCount
	}

	results, err := c.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", c.name, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Similarity,
			Metadata: convertMetadataFromString(r.Metadata),
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")

	c.store.logger.Debug("searched chromem collection",
		zap.String("collection", c.name),
		zap.Int("k", k),
		zap.Int("results", len(searchResults)),
	)

	return searchResults, nil
}

// List returns every document in the collection in lexicographic ID order.
//
// chromem-go has no scan API, so List queries with a fixed probe vector and
// k equal to the document count, which returns every document.
func (c *chromemCollection) List(ctx context.Context) ([]Document, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemCollection.List")
	defer span.End()

	span.SetAttributes(attribute.String("collection", c.name))

	docCount := c.col.Count()
	if docCount == 0 {
		span.SetStatus(codes.Ok, "empty")
		return []Document{}, nil
	}

	// Unit probe vector; the similarity values are meaningless and the
	// results are re-sorted by ID below.
	probe := make([]float32, c.store.config.VectorSize)
	probe[0] = 1

	results, err := c.col.QueryEmbedding(ctx, probe, docCount, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("listing documents in %s: %w", c.name, err)
	}

	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = Document{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: convertMetadataFromString(r.Metadata),
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	span.SetAttributes(attribute.Int("document_count", len(docs)))
	span.SetStatus(codes.Ok, "success")

	return docs, nil
}

// convertMetadataToString converts map[string]interface{} to map[string]string.
func convertMetadataToString(metadata map[string]interface{}) map[string]string {
	if metadata == nil {
		return nil
	}

	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = fmt.Sprintf("%d", val)
		case int64:
			result[k] = fmt.Sprintf("%d", val)
		case float64:
			result[k] = fmt.Sprintf("%f", val)
		case bool:
			result[k] = fmt.Sprintf("%t", val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

// convertMetadataFromString converts map[string]string back to map[string]interface{}.
func convertMetadataFromString(metadata map[string]string) map[string]interface{} {
	if metadata == nil {
		return nil
	}

	result := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		result[k] = v
	}
	return result
}

// Ensure ChromemStore implements Store interface.
var (
	_ Store      = (*ChromemStore)(nil)
	_ Collection = (*chromemCollection)(nil)
)
