package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ekoatlas/data-api/internal/models"
	"github.com/ekoatlas/data-api/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a single manifest load.
const DefaultLoadTimeout = 30 * time.Second

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Validate checks each manifest document against the schema when it is loaded.
	Validate bool
	// LoadTimeout bounds a manifest load shared by concurrent callers.
	LoadTimeout time.Duration
	Logger      *zap.Logger
}

// Resolver turns structured requests into manifest entries. Manifests are
// loaded on first use and kept for the lifetime of the process; there is no
// invalidation, a new deployment starts with an empty cache.
type Resolver struct {
	store       storage.Store
	validate    bool
	loadTimeout time.Duration
	logger      *zap.Logger

	mu        sync.RWMutex
	manifests map[models.Section]models.Manifest
	loads     singleflight.Group
}

// Resolution is a request matched to its manifest entry.
type Resolution struct {
	Key   models.Key
	Entry models.ManifestEntry
}

// NewResolver creates a resolver reading manifests from store.
func NewResolver(store storage.Store, opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	return &Resolver{
		store:       store,
		validate:    opts.Validate,
		loadTimeout: opts.LoadTimeout,
		logger:      logger,
		manifests:   make(map[models.Section]models.Manifest),
	}
}

// Resolve computes the normalized key of q and looks it up. A missing key is
// reported as models.ErrManifestKeyNotFound; no nearby key is ever tried.
func (r *Resolver) Resolve(ctx context.Context, q models.DataQuery) (*Resolution, error) {
	key := RequestKey(q)

	m, err := r.Manifest(ctx, key.Section)
	if err != nil {
		return nil, err
	}

	entry, ok := m.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrManifestKeyNotFound, key)
	}
	return &Resolution{Key: key, Entry: entry}, nil
}

// Manifest returns the section's manifest, loading it on first use.
// Concurrent first loads share one read. Failed loads are not cached.
func (r *Resolver) Manifest(ctx context.Context, section models.Section) (models.Manifest, error) {
	if !section.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownSection, section)
	}

	r.mu.RLock()
	m, ok := r.manifests[section]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	// The shared load outlives a canceled caller. Each caller stops waiting
	// when its own context ends.
	results := r.loads.DoChan(string(section), func() (any, error) {
		r.mu.RLock()
		cached, ok := r.manifests[section]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()
		loaded, err := r.load(loadCtx, section)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.manifests[section] = loaded
		r.mu.Unlock()
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(models.Manifest), nil
	}
}

// Preload loads every section manifest. Sections that fail are reported in
// the joined error; the others stay cached.
func (r *Resolver) Preload(ctx context.Context) error {
	var errs []error
	for _, section := range models.Sections {
		m, err := r.Manifest(ctx, section)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.logger.Info("Manifest preloaded", zap.String("section", string(section)), zap.Int("entries", len(m)))
	}
	return errors.Join(errs...)
}

// Loaded returns the sections currently cached.
func (r *Resolver) Loaded() []models.Section {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Section, 0, len(r.manifests))
	for _, section := range models.Sections {
		if _, ok := r.manifests[section]; ok {
			out = append(out, section)
		}
	}
	return out
}

func (r *Resolver) load(ctx context.Context, section models.Section) (models.Manifest, error) {
	ctx, span := otel.Tracer("manifest").Start(ctx, "manifest.load")
	defer span.End()

	file := section.ManifestPath()
	span.SetAttributes(attribute.String("manifest.section", string(section)), attribute.String("manifest.path", file))

	raw, err := r.store.Read(ctx, file)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: manifest %s", models.ErrNotFound, file)
		}
		return nil, fmt.Errorf("%w: failed to read manifest %s: %v", models.ErrInternal, file, err)
	}

	if r.validate {
		if err := Validate(raw); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}

	m := models.Manifest{}
	if err := json.Unmarshal(raw, &m); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %s: %v", models.ErrManifestInvalid, file, err)
	}

	span.SetAttributes(attribute.Int("manifest.entries", len(m)))
	r.logger.Debug("Manifest loaded", zap.String("section", string(section)), zap.Int("entries", len(m)))
	return m, nil
}
