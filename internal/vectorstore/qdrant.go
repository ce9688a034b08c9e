// Package vectorstore provides vector storage implementations.
package vectorstore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("memoryd.vectorstore.qdrant")

// QdrantConfig holds configuration for Qdrant gRPC client.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (NOT HTTP REST port).
	// Default: 6334 (gRPC), not 6333 (HTTP)
	Port int

	// APIKey authenticates against a secured Qdrant deployment. Optional.
	APIKey string

	// VectorSize is the dimensionality of embeddings.
	// Examples: 384 (BAAI/bge-small-en-v1.5), 768 (BERT), 1536 (OpenAI)
	// MUST match Embedder output dimensions.
	VectorSize uint64

	// Distance is the similarity metric for vector search.
	// Options: Cosine (default), Euclid, Dot
	Distance qdrant.Distance

	// UseTLS enables TLS encryption for gRPC connection.
	UseTLS bool

	// MaxRetries is the maximum number of retry attempts for transient failures.
	// Default: 3
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries.
	// Doubles on each retry (exponential backoff).
	// Default: 1 second
	RetryBackoff time.Duration

	// MaxMessageSize is the maximum gRPC message size in bytes.
	// Default: 50MB (to handle large documents)
	MaxMessageSize int

	// CircuitBreakerThreshold is the number of failures before opening circuit.
	// Default: 5
	CircuitBreakerThreshold int
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	if c.VectorSize == 0 {
		return fmt.Errorf("%w: vector size required", ErrInvalidConfig)
	}
	return nil
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024 // 50MB
	}
	if c.CircuitBreakerThreshold == 0 {
		c.CircuitBreakerThreshold = 5
	}
	if c.Distance == 0 {
		c.Distance = qdrant.Distance_Cosine
	}
}

// IsTransientError checks if an error is transient (should retry).
// Returns true for network timeouts, temporary unavailability.
// Returns false for invalid config, not found, permission denied.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	case grpccodes.InvalidArgument, grpccodes.NotFound, grpccodes.PermissionDenied, grpccodes.Unauthenticated:
		return false
	default:
		return false
	}
}

// QdrantStore is a Store implementation using Qdrant's native gRPC client.
//
// This implementation bypasses Qdrant's actix-web HTTP layer, eliminating
// its 256kB payload limit, and gets binary protobuf encoding for free.
// Each project's collection lives server-side, so multiple memoryd instances
// can share one Qdrant deployment.
type QdrantStore struct {
	// client is the official Qdrant Go gRPC client
	client *qdrant.Client

	// embedder generates vector embeddings from text
	embedder Embedder

	// config holds the store configuration
	config QdrantConfig

	// collections caches Collection handles by name.
	collections sync.Map

	// circuitBreaker tracks failures for circuit breaker pattern
	circuitBreaker struct {
		failures int
		lastFail time.Time
		mu       sync.Mutex
	}
}

// NewQdrantStore creates a new QdrantStore with the given configuration.
//
// The constructor validates configuration, creates the Qdrant gRPC client,
// and performs a health check before returning a ready-to-use store.
func NewQdrantStore(config QdrantConfig, embedder Embedder) (*QdrantStore, error) {
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}

	// Warn if TLS is disabled (plaintext gRPC)
	if !config.UseTLS {
		fmt.Fprintf(os.Stderr, "WARNING: Qdrant gRPC using plaintext (TLS disabled). Insecure for production.\n")
	}

	qdrantConfig := &qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		APIKey: config.APIKey,
		UseTLS: config.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(config.MaxMessageSize),
			),
		},
	}

	client, err := qdrant.NewClient(qdrantConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &QdrantStore{
		client:   client,
		embedder: embedder,
		config:   config,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.healthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("health check failed: %w", err)
	}

	return store, nil
}

// Close closes the Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// healthCheck performs a health check on the Qdrant connection.
func (s *QdrantStore) healthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "QdrantStore.HealthCheck")
	defer span.End()

	_, err := s.client.HealthCheck(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("health check failed: %w", err)
	}

	span.SetStatus(codes.Ok, "healthy")
	return nil
}

// retryOperation retries an operation with exponential backoff.
func (s *QdrantStore) retryOperation(ctx context.Context, operationName string, operation func() error) error {
	backoff := s.config.RetryBackoff

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			s.resetCircuitBreaker()
			return nil
		}

		// Check circuit breaker
		if s.isCircuitOpen() {
			return fmt.Errorf("%s: circuit breaker open", operationName)
		}

		// Check if error is transient
		if !IsTransientError(err) {
			return fmt.Errorf("%s failed (permanent): %w", operationName, err)
		}

		// Record failure for circuit breaker
		s.recordFailure()

		// Last attempt, return error
		if attempt == s.config.MaxRetries {
			return fmt.Errorf("%s failed after %d retries: %w", operationName, s.config.MaxRetries, err)
		}

		// Wait before retry (exponential backoff)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", operationName, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return nil
}

func (s *QdrantStore) recordFailure() {
	s.circuitBreaker.mu.Lock()
	defer s.circuitBreaker.mu.Unlock()
	s.circuitBreaker.failures++
	s.circuitBreaker.lastFail = time.Now()
}

func (s *QdrantStore) resetCircuitBreaker() {
	s.circuitBreaker.mu.Lock()
	defer s.circuitBreaker.mu.Unlock()
	s.circuitBreaker.failures = 0
}

func (s *QdrantStore) isCircuitOpen() bool {
	s.circuitBreaker.mu.Lock()
	defer s.circuitBreaker.mu.Unlock()

	// Circuit is open if too many failures recently
	if s.circuitBreaker.failures >= s.config.CircuitBreakerThreshold {
		// Allow retry after 30 seconds
		if time.Since(s.circuitBreaker.lastFail) > 30*time.Second {
			s.circuitBreaker.failures = 0
			return false
		}
		return true
	}
	return false
}

// Collection returns a handle for the named collection, creating the
// server-side collection if it does not exist.
func (s *QdrantStore) Collection(ctx context.Context, name string) (Collection, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.Collection")
	defer span.End()

	span.SetAttributes(attribute.String("collection", name))

	if cached, ok := s.collections.Load(name); ok {
		span.SetStatus(codes.Ok, "cached")
		return cached.(*qdrantCollection), nil
	}

	if err := ValidateCollectionName(name); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	exists, err := s.collectionExists(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !exists {
		if err := s.createCollection(ctx, name); err != nil {
			// A concurrent creator may have won the race.
			if nowExists, checkErr := s.collectionExists(ctx, name); checkErr != nil || !nowExists {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
		}
	}

	handle := &qdrantCollection{name: name, store: s}
	actual, _ := s.collections.LoadOrStore(name, handle)

	span.SetStatus(codes.Ok, "success")
	return actual.(*qdrantCollection), nil
}

// collectionExists checks if a collection exists server-side.
func (s *QdrantStore) collectionExists(ctx context.Context, collectionName string) (bool, error) {
	var exists bool
	err := s.retryOperation(ctx, "collection_exists", func() error {
		info, err := s.client.GetCollectionInfo(ctx, collectionName)
		if err != nil {
			st, ok := status.FromError(err)
			if ok && st.Code() == grpccodes.NotFound {
				exists = false
				return nil
			}
			return err
		}
		exists = info != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking collection %s: %w", collectionName, err)
	}
	return exists, nil
}

// createCollection creates a collection with the configured vector size.
func (s *QdrantStore) createCollection(ctx context.Context, collectionName string) error {
	err := s.retryOperation(ctx, "create_collection", func() error {
		return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.config.VectorSize,
				Distance: s.config.Distance,
			}),
		})
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", collectionName, err)
	}
	return nil
}

// ListCollections returns a list of all collection names.
func (s *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "QdrantStore.ListCollections")
	defer span.End()

	var collections []string
	err := s.retryOperation(ctx, "list_collections", func() error {
		result, err := s.client.ListCollections(ctx)
		if err != nil {
			return err
		}
		collections = result
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	span.SetAttributes(attribute.Int("collection_count", len(collections)))
	span.SetStatus(codes.Ok, "success")
	return collections, nil
}

// qdrantCollection is a Collection handle bound to one Qdrant collection.
//
// Document IDs double as Qdrant point IDs, so they must be UUIDs. The memory
// service generates UUIDv4 identifiers, which satisfies this.
type qdrantCollection struct {
	name  string
	store *QdrantStore
}

// Name returns the collection name.
func (c *qdrantCollection) Name() string {
	return c.name
}

// Add embeds and upserts a document.
func (c *qdrantCollection) Add(ctx context.Context, doc Document) error {
	ctx, span := tracer.Start(ctx, "QdrantCollection.Add")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.String("document_id", doc.ID),
	)

	if _, err := uuid.Parse(doc.ID); err != nil {
		return fmt.Errorf("%w: document id must be a UUID, got %q", ErrInvalidConfig, doc.ID)
	}

	embeddings, err := c.store.embedder.EmbedDocuments(ctx, []string{doc.Content})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	payload := make(map[string]*qdrant.Value)
	payload["content"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: doc.Content}}
	payload["id"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: doc.ID}}

	for k, v := range doc.Metadata {
		switch val := v.(type) {
		case string:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
		case int:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
		case int64:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
		case float64:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
		case bool:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
		}
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(doc.ID),
		Vectors: qdrant.NewVectors(embeddings[0]...),
		Payload: payload,
	}

	err = c.store.retryOperation(ctx, "upsert", func() error {
		_, err := c.store.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: c.name,
			Points:         []*qdrant.PointStruct{point},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upserting point to collection %s: %w", c.name, err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Get fetches a document by ID. Qdrant returns only the found points, so an
// empty result means the ID is absent.
func (c *qdrantCollection) Get(ctx context.Context, id string) (*Document, bool, error) {
	ctx, span := tracer.Start(ctx, "QdrantCollection.Get")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.String("document_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		// Never stored: point IDs are always UUIDs.
		span.SetStatus(codes.Ok, "not found")
		return nil, false, nil
	}

	var points []*qdrant.RetrievedPoint
	err := c.store.retryOperation(ctx, "get", func() error {
		res, err := c.store.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: c.name,
			Ids:            []*qdrant.PointId{qdrant.NewIDUUID(id)},
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("getting point from collection %s: %w", c.name, err)
	}

	if len(points) == 0 {
		span.SetStatus(codes.Ok, "not found")
		return nil, false, nil
	}

	doc := pointToDocument(points[0])
	span.SetStatus(codes.Ok, "success")
	return &doc, true, nil
}

// Update replaces the stored document with the same ID.
func (c *qdrantCollection) Update(ctx context.Context, doc Document) error {
	// Upsert replaces the stored point, so update and add share the write path.
	return c.Add(ctx, doc)
}

// Delete removes a document by ID.
func (c *qdrantCollection) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "QdrantCollection.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.String("document_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		// Never stored, nothing to delete.
		span.SetStatus(codes.Ok, "not found")
		return nil
	}

	err := c.store.retryOperation(ctx, "delete", func() error {
		_, err := c.store.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: c.name,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Points{
					Points: &qdrant.PointsIdsList{
						Ids: []*qdrant.PointId{qdrant.NewIDUUID(id)},
					},
				},
			},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting point from collection %s: %w", c.name, err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Query performs similarity search in the collection.
func (c *qdrantCollection) Query(ctx context.Context, query string, k int) ([]SearchResult, error) {
	ctx, span := tracer.Start(ctx, "QdrantCollection.Query")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", c.name),
		attribute.Int("k", k),
	)

	// Validate k parameter (security: prevent resource exhaustion)
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	const maxK = 10000
	if k > maxK {
		k = maxK
	}

	// Validate query (security: prevent DoS via oversized queries)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	const maxQueryLength = 10000 // characters
	if len(query) > maxQueryLength {
		return nil, fmt.Errorf("query exceeds maximum length of %d characters", maxQueryLength)
	}

	queryVector, err := c.store.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	var results []*qdrant.ScoredPoint
	err = c.store.retryOperation(ctx, "search", func() error {
		res, err := c.store.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: c.name,
			Query:          qdrant.NewQuery(queryVector...),
			Limit:          qdrant.PtrOf(uint64(k)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		results = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching collection %s: %w", c.name, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, point := range results {
		result := SearchResult{
			Score: point.Score,
		}

		if point.Payload != nil {
			result.Metadata = make(map[string]interface{})
			for key, v := range point.Payload {
				switch val := v.Kind.(type) {
				case *qdrant.Value_StringValue:
					// Always add to metadata for consistent access
					result.Metadata[key] = val.StringValue
					// Also set dedicated fields for commonly accessed values
					if key == "content" {
						result.Content = val.StringValue
					} else if key == "id" {
						result.ID = val.StringValue
					}
				case *qdrant.Value_IntegerValue:
					result.Metadata[key] = val.IntegerValue
				case *qdrant.Value_DoubleValue:
					result.Metadata[key] = val.DoubleValue
				case *qdrant.Value_BoolValue:
					result.Metadata[key] = val.BoolValue
				}
			}
		}

		searchResults[i] = result
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")
	return searchResults, nil
}

// List returns every document in the collection in point ID order.
//
// Qdrant's scroll API pages by point ID; a single page sized to the current
// point count fetches everything. Collections here hold project notes, not
// bulk corpora, so one page is fine.
func (c *qdrantCollection) List(ctx context.Context) ([]Document, error) {
	ctx, span := tracer.Start(ctx, "QdrantCollection.List")
	defer span.End()

	span.SetAttributes(attribute.String("collection", c.name))

	var pointCount uint64
	err := c.store.retryOperation(ctx, "collection_info", func() error {
		info, err := c.store.client.GetCollectionInfo(ctx, c.name)
		if err != nil {
			st, ok := status.FromError(err)
			if ok && st.Code() == grpccodes.NotFound {
				return ErrCollectionNotFound
			}
			return err
		}
		if info.PointsCount != nil {
			pointCount = *info.PointsCount
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("getting collection info for %s: %w", c.name, err)
	}

	if pointCount == 0 {
		span.SetStatus(codes.Ok, "empty")
		return []Document{}, nil
	}

	var points []*qdrant.RetrievedPoint
	err = c.store.retryOperation(ctx, "scroll", func() error {
		res, err := c.store.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: c.name,
			Limit:          qdrant.PtrOf(uint32(pointCount)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("scrolling collection %s: %w", c.name, err)
	}

	docs := make([]Document, len(points))
	for i, point := range points {
		docs[i] = pointToDocument(point)
	}

	span.SetAttributes(attribute.Int("document_count", len(docs)))
	span.SetStatus(codes.Ok, "success")
	return docs, nil
}

// pointToDocument converts a retrieved point back into a Document.
// The content and id payload keys are promoted to fields; the rest is
// metadata.
func pointToDocument(point *qdrant.RetrievedPoint) Document {
	doc := Document{}

	if point.Id != nil {
		doc.ID = point.Id.GetUuid()
	}

	if point.Payload != nil {
		doc.Metadata = make(map[string]interface{})
		for key, v := range point.Payload {
			switch val := v.Kind.(type) {
			case *qdrant.Value_StringValue:
				switch key {
				case "content":
					doc.Content = val.StringValue
				case "id":
					doc.ID = val.StringValue
				default:
					doc.Metadata[key] = val.StringValue
				}
			case *qdrant.Value_IntegerValue:
				doc.Metadata[key] = val.IntegerValue
			case *qdrant.Value_DoubleValue:
				doc.Metadata[key] = val.DoubleValue
			case *qdrant.Value_BoolValue:
				doc.Metadata[key] = val.BoolValue
			}
		}
	}

	return doc
}

// Ensure QdrantStore implements Store interface.
var (
	_ Store      = (*QdrantStore)(nil)
	_ Collection = (*qdrantCollection)(nil)
)
