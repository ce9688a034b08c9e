// Package registry caches one memory service per project codename.
//
// Services are created lazily on first access and never evicted during
// normal operation. The underlying vector store's get-or-create is
// idempotent by collection name, so concurrent first access is harmless.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/memoryd/internal/memory"
	"github.com/fyrsmithlabs/memoryd/internal/project"
	"github.com/fyrsmithlabs/memoryd/internal/vectorstore"
)

// Registry resolves codenames to memory services backed by per-project
// collections. Safe for concurrent use.
type Registry struct {
	store  vectorstore.Store
	logger *zap.Logger

	mu       sync.RWMutex
	services map[string]*memory.Service
}

// New creates a registry over the given vector store.
func New(store vectorstore.Store, logger *zap.Logger) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		store:    store,
		logger:   logger,
		services: make(map[string]*memory.Service),
	}, nil
}

// ForCodename returns the memory service for a codename, creating the
// backing collection on first access. The codename is normalized and
// validated before any collection lookup; invalid codenames fail with
// project.ErrInvalidCodename.
func (r *Registry) ForCodename(ctx context.Context, codename string) (*memory.Service, error) {
	normalized, err := project.Normalize(codename)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	svc, ok := r.services[normalized]
	r.mu.RUnlock()
	if ok {
		return svc, nil
	}

	col, err := r.store.Collection(ctx, project.CollectionName(normalized))
	if err != nil {
		return nil, fmt.Errorf("opening collection for %q: %w", normalized, err)
	}

	svc, err = memory.NewService(normalized, col, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A concurrent first access may have published a service already; keep
	// it so every caller shares one handle per codename.
	if existing, ok := r.services[normalized]; ok {
		return existing, nil
	}
	r.services[normalized] = svc

	r.logger.Info("project registered",
		zap.String("codename", normalized),
		zap.String("collection", project.CollectionName(normalized)))

	return svc, nil
}

// ListCodenames enumerates codenames from the store's collections, stripping
// the project prefix. When enumeration fails, the registry degrades to the
// codenames it has already served this process, with a warning.
func (r *Registry) ListCodenames(ctx context.Context) []string {
	names, err := r.store.ListCollections(ctx)
	if err != nil {
		r.logger.Warn("listing collections failed, serving cached codenames", zap.Error(err))
		return r.cachedCodenames()
	}

	codenames := make([]string, 0, len(names))
	for _, name := range names {
		if codename, ok := project.CodenameFromCollection(name); ok {
			codenames = append(codenames, codename)
		}
	}
	sort.Strings(codenames)
	return codenames
}

func (r *Registry) cachedCodenames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codenames := make([]string, 0, len(r.services))
	for codename := range r.services {
		codenames = append(codenames, codename)
	}
	sort.Strings(codenames)
	return codenames
}
