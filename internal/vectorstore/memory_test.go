package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/vectorstore"
)

func newTestMemoryCollection(t *testing.T) vectorstore.Collection {
	t.Helper()

	store := vectorstore.NewMemoryStore(zap.NewNop())
	col, err := store.Collection(context.Background(), "project_memory_alpha")
	require.NoError(t, err)
	return col
}

func TestMemoryStoreCollectionValidatesName(t *testing.T) {
	store := vectorstore.NewMemoryStore(nil)

	_, err := store.Collection(context.Background(), "Not Valid!")
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidCollectionName)
}

func TestMemoryStoreCollectionHandleIsCached(t *testing.T) {
	store := vectorstore.NewMemoryStore(nil)
	ctx := context.Background()

	a, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)
	b, err := store.Collection(ctx, "project_memory_alpha")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestMemoryStoreListCollectionsSorted(t *testing.T) {
	store := vectorstore.NewMemoryStore(nil)
	ctx := context.Background()

	for _, name := range []string{"project_memory_zulu", "project_memory_alpha", "project_memory_mike"} {
		_, err := store.Collection(ctx, name)
		require.NoError(t, err)
	}

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"project_memory_alpha", "project_memory_mike", "project_memory_zulu"}, names)
}

func TestMemoryCollectionAddGetRoundTrip(t *testing.T) {
	col := newTestMemoryCollection(t)
	ctx := context.Background()

	doc := vectorstore.Document{
		ID:       "id-1",
		Content:  "remember the milk",
		Metadata: map[string]interface{}{"tags": "errand,groceries"},
	}
	require.NoError(t, col.Add(ctx, doc))

	got, found, err := col.Get(ctx, "id-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "remember the milk", got.Content)
	assert.Equal(t, "errand,groceries", got.Metadata["tags"])

	_, found, err = col.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCollectionAddRequiresID(t *testing.T) {
	col := newTestMemoryCollection(t)

	err := col.Add(context.Background(), vectorstore.Document{Content: "no id"})
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}

func TestMemoryCollectionGetReturnsCopy(t *testing.T) {
	col := newTestMemoryCollection(t)
	ctx := context.Background()

	require.NoError(t, col.Add(ctx, vectorstore.Document{
		ID:       "id-1",
		Content:  "original",
		Metadata: map[string]interface{}{"tags": "a"},
	}))

	got, _, err := col.Get(ctx, "id-1")
	require.NoError(t, err)
	got.Metadata["tags"] = "mutated"

	again, _, err := col.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Metadata["tags"])
}

func TestMemoryCollectionUpdateKeepsOrder(t *testing.T) {
	col := newTestMemoryCollection(t)
	ctx := context.Background()

	require.NoError(t, col.Add(ctx, vectorstore.Document{ID: "id-1", Content: "first"}))
	require.NoError(t, col.Add(ctx, vectorstore.Document{ID: "id-2", Content: "second"}))
	require.NoError(t, col.Update(ctx, vectorstore.Document{ID: "id-1", Content: "first revised"}))

	docs, err := col.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "id-1", docs[0].ID)
	assert.Equal(t, "first revised", docs[0].Content)
	assert.Equal(t, "id-2", docs[1].ID)
}

func TestMemoryCollectionDelete(t *testing.T) {
	col := newTestMemoryCollection(t)
	ctx := context.Background()

	require.NoError(t, col.Add(ctx, vectorstore.Document{ID: "id-1", Content: "ephemeral"}))
	require.NoError(t, col.Delete(ctx, "id-1"))

	_, found, err := col.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent ID is not an error.
	require.NoError(t, col.Delete(ctx, "id-1"))

	docs, err := col.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryCollectionQueryRanksSubstringFirst(t *testing.T) {
	col := newTestMemoryCollection(t)
	ctx := context.Background()

	require.NoError(t, col.Add(ctx, vectorstore.Document{ID: "id-1", Content: "grocery list for the week"}))
	require.NoError(t, col.Add(ctx, vectorstore.Document{ID: "id-2", Content: "deploy runbook for the api"}))
	require.NoError(t, col.Add(ctx, vectorstore.Document{ID: "id-3", Content: "meeting notes from monday"}))

	results, err := col.Query(ctx, "deploy runbook", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "id-2", results[0].ID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
}

func TestMemoryCollectionQueryLimit(t *testing.T) {
	col := newTestMemoryCollection(t)
	ctx := context.Background()

	for _, doc := range []vectorstore.Document{
		{ID: "id-1", Content: "alpha beta"},
		{ID: "id-2", Content: "alpha gamma"},
		{ID: "id-3", Content: "alpha delta"},
	} {
		require.NoError(t, col.Add(ctx, doc))
	}

	results, err := col.Query(ctx, "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryCollectionQueryValidatesInput(t *testing.T) {
	col := newTestMemoryCollection(t)
	ctx := context.Background()

	_, err := col.Query(ctx, "", 5)
	assert.Error(t, err)

	_, err = col.Query(ctx, "anything", 0)
	assert.Error(t, err)
}

func TestMemoryCollectionQueryEmptyCollection(t *testing.T) {
	col := newTestMemoryCollection(t)

	results, err := col.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
