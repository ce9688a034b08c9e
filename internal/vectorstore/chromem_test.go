package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/vectorstore"
)

func newTestChromemStore(t *testing.T) *vectorstore.ChromemStore {
	t.Helper()

	config := vectorstore.ChromemConfig{
		Path:       t.TempDir(),
		Compress:   false, // faster for tests
		VectorSize: testVectorSize,
	}

	store, err := vectorstore.NewChromemStore(config, &bagOfWordsEmbedder{}, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestChromemConfigApplyDefaults(t *testing.T) {
	config := vectorstore.ChromemConfig{}
	config.ApplyDefaults()

	assert.Equal(t, "~/.config/memoryd/vectorstore", config.Path)
	assert.Equal(t, 384, config.VectorSize)
}

func TestNewChromemStoreRequiresEmbedder(t *testing.T) {
	_, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: t.TempDir()}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}

func TestChromemCollectionRejectsInvalidName(t *testing.T) {
	store := newTestChromemStore(t)

	_, err := store.Collection(context.Background(), "Bad Name")
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidCollectionName)
}

func TestChromemAddGetRoundTrip(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)

	doc := vectorstore.Document{
		ID:       "3f1a9f24-0001-4cde-9f10-aaaaaaaaaaaa",
		Content:  "rotate the api keys quarterly",
		Metadata: map[string]interface{}{"tags": "security,ops"},
	}
	require.NoError(t, col.Add(ctx, doc))

	got, found, err := col.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, "security,ops", got.Metadata["tags"])

	_, found, err = col.Get(ctx, "3f1a9f24-0002-4cde-9f10-bbbbbbbbbbbb")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestChromemUpdateReplacesDocument(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)

	id := "3f1a9f24-0003-4cde-9f10-cccccccccccc"
	require.NoError(t, col.Add(ctx, vectorstore.Document{
		ID:       id,
		Content:  "draft note",
		Metadata: map[string]interface{}{"tags": "draft"},
	}))
	require.NoError(t, col.Update(ctx, vectorstore.Document{
		ID:       id,
		Content:  "final note",
		Metadata: map[string]interface{}{"tags": "final"},
	}))

	got, found, err := col.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "final note", got.Content)
	assert.Equal(t, "final", got.Metadata["tags"])

	docs, err := col.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestChromemDelete(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)

	id := "3f1a9f24-0004-4cde-9f10-dddddddddddd"
	require.NoError(t, col.Add(ctx, vectorstore.Document{ID: id, Content: "to be removed"}))
	require.NoError(t, col.Delete(ctx, id))

	_, found, err := col.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestChromemQueryOrdersBySimilarity(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)

	docs := []vectorstore.Document{
		{ID: "3f1a9f24-0005-4cde-9f10-eeeeeeeeeeee", Content: "postgres connection pooling settings"},
		{ID: "3f1a9f24-0006-4cde-9f10-ffffffffffff", Content: "weekly grocery shopping list"},
		{ID: "3f1a9f24-0007-4cde-9f10-999999999999", Content: "team offsite travel plans"},
	}
	for _, doc := range docs {
		require.NoError(t, col.Add(ctx, doc))
	}

	results, err := col.Query(ctx, "postgres connection pooling", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, docs[0].ID, results[0].ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestChromemQueryCapsAtDocumentCount(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)

	require.NoError(t, col.Add(ctx, vectorstore.Document{
		ID:      "3f1a9f24-0008-4cde-9f10-888888888888",
		Content: "only one document",
	}))

	results, err := col.Query(ctx, "document", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChromemQueryEmptyCollection(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)

	results, err := col.Query(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemListReturnsAllSortedByID(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)

	ids := []string{
		"3f1a9f24-000c-4cde-9f10-cccccccccccc",
		"3f1a9f24-000a-4cde-9f10-aaaaaaaaaaaa",
		"3f1a9f24-000b-4cde-9f10-bbbbbbbbbbbb",
	}
	for i, id := range ids {
		require.NoError(t, col.Add(ctx, vectorstore.Document{ID: id, Content: "note " + string(rune('a'+i))}))
	}

	docs, err := col.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "3f1a9f24-000a-4cde-9f10-aaaaaaaaaaaa", docs[0].ID)
	assert.Equal(t, "3f1a9f24-000b-4cde-9f10-bbbbbbbbbbbb", docs[1].ID)
	assert.Equal(t, "3f1a9f24-000c-4cde-9f10-cccccccccccc", docs[2].ID)
}

func TestChromemListCollections(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)
	_, err = store.Collection(ctx, "project_memory_beta")
	require.NoError(t, err)

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"project_memory_alpha", "project_memory_beta"}, names)
}

func TestChromemPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	config := vectorstore.ChromemConfig{Path: dir, VectorSize: testVectorSize}
	store, err := vectorstore.NewChromemStore(config, &bagOfWordsEmbedder{}, zap.NewNop())
	require.NoError(t, err)

	col, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)

	id := "3f1a9f24-000d-4cde-9f10-121212121212"
	require.NoError(t, col.Add(ctx, vectorstore.Document{
		ID:       id,
		Content:  "survives restarts",
		Metadata: map[string]interface{}{"tags": "durable"},
	}))
	require.NoError(t, store.Close())

	reopened, err := vectorstore.NewChromemStore(config, &bagOfWordsEmbedder{}, zap.NewNop())
	require.NoError(t, err)

	col, err = reopened.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)

	got, found, err := col.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "survives restarts", got.Content)
	assert.Equal(t, "durable", got.Metadata["tags"])
}
