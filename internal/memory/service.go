package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/vectorstore"
)

const instrumentationName = "github.com/fyrsmithlabs/memoryd/internal/memory"

// DefaultSearchLimit is the maximum result count used when the caller
// supplies no limit or a non-positive one.
const DefaultSearchLimit = 5

// Service provides memory operations over a single codename's collection.
//
// One Service wraps one collection handle. The registry caches a Service per
// codename for the lifetime of the process. Operations are safe for
// concurrent use, but read-modify-write sequences (update, delete) are not
// transactional: a concurrent delete between lookup and mutation can race,
// which is an accepted limitation.
type Service struct {
	codename   string
	collection vectorstore.Collection
	logger     *zap.Logger

	tracer        trace.Tracer
	meter         metric.Meter
	storeCounter  metric.Int64Counter
	searchCounter metric.Int64Counter
	deleteCounter metric.Int64Counter
}

// NewService creates a memory service bound to the codename's collection.
func NewService(codename string, collection vectorstore.Collection, logger *zap.Logger) (*Service, error) {
	if codename == "" {
		return nil, fmt.Errorf("codename cannot be empty")
	}
	if collection == nil {
		return nil, fmt.Errorf("collection cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		codename:   codename,
		collection: collection,
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
		meter:      otel.Meter(instrumentationName),
	}

	s.initMetrics()

	return s, nil
}

func (s *Service) initMetrics() {
	var err error

	s.storeCounter, err = s.meter.Int64Counter(
		"memoryd.memory.stores_total",
		metric.WithDescription("Total number of memories stored"),
		metric.WithUnit("{memory}"),
	)
	if err != nil {
		s.logger.Warn("failed to create store counter", zap.Error(err))
	}

	s.searchCounter, err = s.meter.Int64Counter(
		"memoryd.memory.searches_total",
		metric.WithDescription("Total number of memory searches"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		s.logger.Warn("failed to create search counter", zap.Error(err))
	}

	s.deleteCounter, err = s.meter.Int64Counter(
		"memoryd.memory.deletes_total",
		metric.WithDescription("Total number of memories deleted"),
		metric.WithUnit("{memory}"),
	)
	if err != nil {
		s.logger.Warn("failed to create delete counter", zap.Error(err))
	}
}

// Codename returns the project namespace this service operates on.
func (s *Service) Codename() string {
	return s.codename
}

// Store creates a new record with a fresh id and returns it as read back
// from the collection.
//
// Fails with ErrValidation if content is blank after trimming. Content is
// stored trimmed.
func (s *Service) Store(ctx context.Context, content string, tags []string) (*Record, error) {
	ctx, span := s.tracer.Start(ctx, "memory.store")
	defer span.End()
	span.SetAttributes(attribute.String("memory.codename", s.codename))

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
	}

	normalized, err := NormalizeTags(tags)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if err := s.collection.Add(ctx, recordDocument(id, content, normalized)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing memory: %w", err)
	}

	record, found, err := s.readBack(ctx, span, id)
	if err != nil {
		return nil, err
	}
	if !found {
		err := fmt.Errorf("stored memory %s missing on read-back", id)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.storeCounter != nil {
		s.storeCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("codename", s.codename),
		))
	}

	span.SetAttributes(attribute.String("memory.id", record.ID))
	s.logger.Info("memory stored",
		zap.String("codename", s.codename),
		zap.String("id", record.ID),
		zap.Int("tag_count", len(record.Tags)))

	return record, nil
}

// Get retrieves a record by id. A missing id is a normal outcome reported
// through the boolean, not an error.
func (s *Service) Get(ctx context.Context, id string) (*Record, bool, error) {
	ctx, span := s.tracer.Start(ctx, "memory.get")
	defer span.End()
	span.SetAttributes(
		attribute.String("memory.codename", s.codename),
		attribute.String("memory.id", id),
	)

	doc, found, err := s.collection.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("getting memory: %w", err)
	}
	if !found {
		span.SetAttributes(attribute.Bool("memory.found", false))
		return nil, false, nil
	}

	return documentToRecord(doc), true, nil
}

// List returns every record in the collection, in store-defined order.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	ctx, span := s.tracer.Start(ctx, "memory.list")
	defer span.End()
	span.SetAttributes(attribute.String("memory.codename", s.codename))

	docs, err := s.collection.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("listing memories: %w", err)
	}

	records := make([]Record, 0, len(docs))
	for i := range docs {
		records = append(records, *documentToRecord(&docs[i]))
	}

	span.SetAttributes(attribute.Int("memory.result_count", len(records)))
	return records, nil
}

// Search retrieves up to limit records by semantic similarity to the query,
// most similar first. A non-positive limit falls back to DefaultSearchLimit.
//
// Fails with ErrValidation if the query is blank after trimming.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	ctx, span := s.tracer.Start(ctx, "memory.search")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	span.SetAttributes(
		attribute.String("memory.codename", s.codename),
		attribute.Int("memory.limit", limit),
	)

	results, err := s.collection.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching memories: %w", err)
	}

	records := make([]Record, 0, len(results))
	for i := range results {
		doc := vectorstore.Document{
			ID:       results[i].ID,
			Content:  results[i].Content,
			Metadata: results[i].Metadata,
		}
		records = append(records, *documentToRecord(&doc))
	}

	if s.searchCounter != nil {
		s.searchCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("codename", s.codename),
			attribute.Int("result_count", len(records)),
		))
	}

	span.SetAttributes(attribute.Int("memory.result_count", len(records)))
	s.logger.Debug("memory search completed",
		zap.String("codename", s.codename),
		zap.Int("limit", limit),
		zap.Int("results", len(records)))

	return records, nil
}

// Update applies a partial update to an existing record and returns it as
// re-read from the collection. Fields left nil keep their previous value;
// provided fields are replaced wholesale.
//
// Fails with ErrValidation when both fields are nil or when provided
// content is blank. A missing id is reported through the boolean with
// nothing mutated.
func (s *Service) Update(ctx context.Context, id string, content *string, tags *[]string) (*Record, bool, error) {
	ctx, span := s.tracer.Start(ctx, "memory.update")
	defer span.End()
	span.SetAttributes(
		attribute.String("memory.codename", s.codename),
		attribute.String("memory.id", id),
	)

	if content == nil && tags == nil {
		return nil, false, fmt.Errorf("%w: at least one of content or tags is required", ErrValidation)
	}

	existing, found, err := s.collection.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("getting memory: %w", err)
	}
	if !found {
		span.SetAttributes(attribute.Bool("memory.found", false))
		return nil, false, nil
	}

	current := documentToRecord(existing)

	newContent := current.Content
	if content != nil {
		trimmed := strings.TrimSpace(*content)
		if trimmed == "" {
			return nil, false, fmt.Errorf("%w: content cannot be empty", ErrValidation)
		}
		newContent = trimmed
	}

	newTags := current.Tags
	if tags != nil {
		normalized, err := NormalizeTags(*tags)
		if err != nil {
			return nil, false, err
		}
		newTags = normalized
	}

	if err := s.collection.Update(ctx, recordDocument(id, newContent, newTags)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("updating memory: %w", err)
	}

	record, found, err := s.readBack(ctx, span, id)
	if err != nil {
		return nil, false, err
	}
	if !found {
		err := fmt.Errorf("updated memory %s missing on read-back", id)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	s.logger.Info("memory updated",
		zap.String("codename", s.codename),
		zap.String("id", id),
		zap.Bool("content_changed", content != nil),
		zap.Bool("tags_changed", tags != nil))

	return record, true, nil
}

// Delete removes a record by id. Returns false without side effects when
// the id is unknown.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "memory.delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("memory.codename", s.codename),
		attribute.String("memory.id", id),
	)

	_, found, err := s.collection.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("getting memory: %w", err)
	}
	if !found {
		span.SetAttributes(attribute.Bool("memory.found", false))
		return false, nil
	}

	if err := s.collection.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("deleting memory: %w", err)
	}

	if s.deleteCounter != nil {
		s.deleteCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("codename", s.codename),
		))
	}

	s.logger.Info("memory deleted",
		zap.String("codename", s.codename),
		zap.String("id", id))

	return true, nil
}

// readBack fetches a just-written record so callers always see the stored
// representation rather than the input.
func (s *Service) readBack(ctx context.Context, span trace.Span, id string) (*Record, bool, error) {
	doc, found, err := s.collection.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("reading back memory: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return documentToRecord(doc), true, nil
}
