// Package vectorstore provides vector storage implementations.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// MemoryStore is a non-persistent Store for tests and throwaway runs.
//
// It needs no embedder: similarity is approximated by deterministic lexical
// scoring, which keeps test assertions stable. Substring containment beats
// token overlap, which beats no overlap.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	logger      *zap.Logger
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
		logger:      logger,
	}
}

// Collection returns a handle for the named collection, creating it if needed.
func (s *MemoryStore) Collection(_ context.Context, name string) (Collection, error) {
	if err := ValidateCollectionName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}

	c := &memoryCollection{
		name: name,
		docs: make(map[string]Document),
	}
	s.collections[name] = c

	s.logger.Debug("created in-memory collection", zap.String("collection", name))
	return c, nil
}

// ListCollections returns the names of all collections, sorted.
func (s *MemoryStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close releases nothing; the store lives and dies with the process.
func (s *MemoryStore) Close() error {
	return nil
}

// memoryCollection holds documents in insertion order.
type memoryCollection struct {
	name string

	mu    sync.RWMutex
	docs  map[string]Document
	order []string
}

// Name returns the collection name.
func (c *memoryCollection) Name() string {
	return c.name
}

// Add stores a document, replacing any existing document with the same ID.
// A replaced document keeps its original position in insertion order.
func (c *memoryCollection) Add(_ context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidConfig)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[doc.ID]; !exists {
		c.order = append(c.order, doc.ID)
	}
	c.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// Get fetches a document by ID.
func (c *memoryCollection) Get(_ context.Context, id string) (*Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, false, nil
	}
	cp := cloneDocument(doc)
	return &cp, true, nil
}

// Update replaces the stored document with the same ID.
func (c *memoryCollection) Update(ctx context.Context, doc Document) error {
	return c.Add(ctx, doc)
}

// Delete removes a document by ID.
func (c *memoryCollection) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Query returns up to k documents ranked by lexical similarity to the query.
// Ties preserve insertion order.
func (c *memoryCollection) Query(_ context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	results := make([]SearchResult, 0, len(c.order))
	for _, id := range c.order {
		doc := c.docs[id]
		results = append(results, SearchResult{
			ID:       doc.ID,
			Content:  doc.Content,
			Score:    scoreLexical(query, doc.Content),
			Metadata: cloneMetadata(doc.Metadata),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// List returns every document in insertion order.
func (c *memoryCollection) List(_ context.Context) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, cloneDocument(c.docs[id]))
	}
	return docs, nil
}

// scoreLexical approximates semantic similarity for tests.
// Substring containment scores 1.0; otherwise the score is the Jaccard
// overlap of the lowercased token sets.
func scoreLexical(query, content string) float32 {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(content)
	if q == "" {
		return 0
	}
	if strings.Contains(c, q) {
		return 1
	}

	queryTokens := strings.Fields(q)
	contentTokens := strings.Fields(c)
	if len(queryTokens) == 0 || len(contentTokens) == 0 {
		return 0
	}

	contentSet := make(map[string]struct{}, len(contentTokens))
	for _, t := range contentTokens {
		contentSet[t] = struct{}{}
	}

	querySet := make(map[string]struct{}, len(queryTokens))
	matched := 0
	for _, t := range queryTokens {
		if _, dup := querySet[t]; dup {
			continue
		}
		querySet[t] = struct{}{}
		if _, ok := contentSet[t]; ok {
			matched++
		}
	}

	union := len(contentSet) + len(querySet) - matched
	if union == 0 {
		return 0
	}
	return float32(matched) / float32(union)
}

// cloneDocument copies a document so callers cannot alias stored state.
func cloneDocument(doc Document) Document {
	return Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: cloneMetadata(doc.Metadata),
	}
}

func cloneMetadata(metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		return nil
	}
	cp := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		cp[k] = v
	}
	return cp
}

// Ensure MemoryStore implements Store interface.
var (
	_ Store      = (*MemoryStore)(nil)
	_ Collection = (*memoryCollection)(nil)
)
