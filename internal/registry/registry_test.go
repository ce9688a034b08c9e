package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/project"
	"github.com/fyrsmithlabs/memoryd/internal/registry"
	"github.com/fyrsmithlabs/memoryd/internal/vectorstore"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg, err := registry.New(vectorstore.NewMemoryStore(zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	return reg
}

// failingListStore wraps a store and fails collection enumeration.
type failingListStore struct {
	vectorstore.Store
}

func (s *failingListStore) ListCollections(ctx context.Context) ([]string, error) {
	return nil, errors.New("store unavailable")
}

func TestNewRequiresStore(t *testing.T) {
	_, err := registry.New(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestForCodenameNormalizes(t *testing.T) {
	reg := newTestRegistry(t)

	svc, err := reg.ForCodename(context.Background(), "  Alpha  ")
	require.NoError(t, err)
	assert.Equal(t, "alpha", svc.Codename())
}

func TestForCodenameRejectsInvalid(t *testing.T) {
	reg := newTestRegistry(t)

	for _, codename := range []string{"", "   ", "bad name", "team/alpha", "sp€c"} {
		_, err := reg.ForCodename(context.Background(), codename)
		assert.ErrorIs(t, err, project.ErrInvalidCodename, "codename %q", codename)
	}
}

func TestForCodenameCachesHandle(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	first, err := reg.ForCodename(ctx, "alpha")
	require.NoError(t, err)
	second, err := reg.ForCodename(ctx, "ALPHA")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestForCodenameConcurrentAccess(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	services := make([]any, 8)
	for i := 0; i < len(services); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc, err := reg.ForCodename(ctx, "alpha")
			assert.NoError(t, err)
			services[i] = svc
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(services); i++ {
		assert.Same(t, services[0], services[i])
	}
}

func TestListCodenames(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.ForCodename(ctx, "zulu")
	require.NoError(t, err)
	_, err = reg.ForCodename(ctx, "alpha")
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zulu"}, reg.ListCodenames(ctx))
}

func TestListCodenamesEmpty(t *testing.T) {
	reg := newTestRegistry(t)

	codenames := reg.ListCodenames(context.Background())
	require.NotNil(t, codenames)
	assert.Empty(t, codenames)
}

func TestListCodenamesFallsBackToCache(t *testing.T) {
	store := &failingListStore{Store: vectorstore.NewMemoryStore(zap.NewNop())}
	reg, err := registry.New(store, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = reg.ForCodename(ctx, "beta")
	require.NoError(t, err)
	_, err = reg.ForCodename(ctx, "alpha")
	require.NoError(t, err)

	// Enumeration fails; the registry serves what it has already created.
	assert.Equal(t, []string{"alpha", "beta"}, reg.ListCodenames(ctx))
}
