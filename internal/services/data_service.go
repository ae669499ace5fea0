package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekoatlas/data-api/internal/aggregate"
	"github.com/ekoatlas/data-api/internal/dataset"
	"github.com/ekoatlas/data-api/internal/filter"
	"github.com/ekoatlas/data-api/internal/manifest"
	"github.com/ekoatlas/data-api/internal/models"
	"github.com/ekoatlas/data-api/internal/storage"
	"github.com/ekoatlas/data-api/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// SourcePrefix is the directory, relative to the data root, holding the source tree.
const SourcePrefix = "repo/source/"

// Mode tells how a response body was produced.
type Mode string

const (
	ModePassthrough Mode = "passthrough"
	ModeManifest    Mode = "manifest"
	ModeAggregated  Mode = "aggregated"
)

// Response is an encoded data response.
type Response struct {
	Body []byte
	Mode Mode
	// Key is the normalized manifest key; empty for passthrough.
	Key string
}

// DataServiceOptions configures a DataService.
type DataServiceOptions struct {
	// Cache stores aggregated responses. Nil disables caching.
	Cache  ResponseCache
	Logger *zap.Logger
}

// DataService serves data requests from the source tree and section manifests.
type DataService struct {
	store      storage.Store
	resolver   *manifest.Resolver
	aggregator *aggregate.Aggregator
	cache      ResponseCache
	logger     *zap.Logger
}

// NewDataService wires the pipeline components together.
func NewDataService(store storage.Store, resolver *manifest.Resolver, aggregator *aggregate.Aggregator, opts DataServiceOptions) *DataService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataService{
		store:      store,
		resolver:   resolver,
		aggregator: aggregator,
		cache:      opts.Cache,
		logger:     logger,
	}
}

// Serve dispatches a classified request.
func (s *DataService) Serve(ctx context.Context, req *models.DataRequest) (*Response, error) {
	switch req.Kind {
	case models.KindPassthrough:
		return s.Source(ctx, req.SourcePath, req.City)
	case models.KindQuery:
		return s.Query(ctx, req.Query, req.City)
	default:
		return nil, fmt.Errorf("%w: unsupported request kind %s", models.ErrBadRequest, req.Kind)
	}
}

// Source returns a source file, filtered by city when one is given. A body
// that does not decode is returned as is even with a city.
func (s *DataService) Source(ctx context.Context, rel, city string) (*Response, error) {
	ctx, span := otel.Tracer("services").Start(ctx, "data.source")
	defer span.End()
	span.SetAttributes(attribute.String("data.file", rel))

	raw, err := s.read(ctx, SourcePrefix+rel)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	resp := &Response{Body: raw, Mode: ModePassthrough}
	if city == "" {
		return resp, nil
	}

	payload, err := dataset.Decode(raw)
	if err != nil {
		s.logger.Warn("Source file is not JSON, returning it unfiltered", zap.String("file", rel), zap.Error(err))
		return resp, nil
	}

	filtered, err := filter.ByCity(payload, city, nil)
	if err != nil {
		return nil, err
	}
	if resp.Body, err = filtered.Encode(); err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", models.ErrInternal, rel, err)
	}
	return resp, nil
}

// Query resolves a structured request through its section manifest. An
// "all" request with no precomputed entry is built from the per-year entries.
func (s *DataService) Query(ctx context.Context, q models.DataQuery, city string) (*Response, error) {
	ctx, span := otel.Tracer("services").Start(ctx, "data.query")
	defer span.End()

	res, err := s.resolver.Resolve(ctx, q)
	if err == nil {
		span.SetAttributes(attribute.String("data.key", res.Key.String()))
		return s.fromEntry(ctx, res, city)
	}

	key := manifest.RequestKey(q)
	if !errors.Is(err, models.ErrManifestKeyNotFound) || !key.IsAllYears() {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("data.key", key.String()))
	return s.aggregated(ctx, key, city)
}

func (s *DataService) fromEntry(ctx context.Context, res *manifest.Resolution, city string) (*Response, error) {
	raw, err := s.read(ctx, res.Entry.File)
	if err != nil {
		return nil, err
	}
	resp := &Response{Body: raw, Mode: ModeManifest, Key: res.Key.String()}
	if city == "" {
		return resp, nil
	}

	payload, err := dataset.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Entry.File, err)
	}
	if res.Entry.Root != "" {
		if payload, err = payload.Extract(res.Entry.Root); err != nil {
			return nil, fmt.Errorf("%s: %w", res.Entry.File, err)
		}
	}

	filtered, err := filter.ByCity(payload, city, res.Entry.CityKeys)
	if err != nil {
		return nil, err
	}
	if resp.Body, err = filtered.Encode(); err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", models.ErrInternal, res.Key, err)
	}
	return resp, nil
}

func (s *DataService) aggregated(ctx context.Context, key models.Key, city string) (*Response, error) {
	cacheKey := key.String() + "|" + utils.NormalizeCity(city)
	if s.cache != nil {
		if body, ok := s.cache.Get(cacheKey); ok {
			return &Response{Body: body, Mode: ModeAggregated, Key: key.String()}, nil
		}
	}

	m, err := s.resolver.Manifest(ctx, key.Section)
	if err != nil {
		return nil, err
	}
	entries := m.YearEntries(key)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrManifestKeyNotFound, key)
	}

	result, err := s.aggregator.Aggregate(ctx, entries, city)
	if err != nil {
		return nil, err
	}
	if len(result.Skipped) > 0 {
		s.logger.Info("Aggregation skipped years",
			zap.String("key", key.String()),
			zap.Strings("years", result.Years),
			zap.Strings("skipped", result.Skipped),
		)
	}

	body, err := result.Payload.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", models.ErrInternal, key, err)
	}
	if s.cache != nil {
		s.cache.Set(cacheKey, body)
	}
	return &Response{Body: body, Mode: ModeAggregated, Key: key.String()}, nil
}

func (s *DataService) read(ctx context.Context, file string) ([]byte, error) {
	raw, err := s.store.Read(ctx, file)
	switch {
	case err == nil:
		return raw, nil
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", models.ErrFileNotFound, file)
	case errors.Is(err, storage.ErrInvalidPath):
		return nil, fmt.Errorf("%w: %s", models.ErrMalformedPath, file)
	default:
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrInternal, file, err)
	}
}
