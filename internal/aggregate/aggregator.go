// Package aggregate synthesizes "all years" datasets from per-year files
// when no precomputed file exists.
package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strconv"

	"github.com/ekoatlas/data-api/internal/dataset"
	"github.com/ekoatlas/data-api/internal/filter"
	"github.com/ekoatlas/data-api/internal/models"
	"github.com/ekoatlas/data-api/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel chunk fetches.
const DefaultConcurrency = 8

// yearField is the row field stamped with the source year.
const yearField = "year"

// Options configures an Aggregator.
type Options struct {
	Concurrency int
	Logger      *zap.Logger
}

// Aggregator fetches and merges the per-year files of a series.
type Aggregator struct {
	store       storage.Store
	concurrency int
	logger      *zap.Logger
}

// Result is a merged dataset plus the years that contributed to it.
type Result struct {
	Payload dataset.Payload
	// Years that made it into the merge, ascending.
	Years []string
	// Years dropped because their file failed to load or had no city match.
	Skipped []string
}

type chunk struct {
	year    string
	payload dataset.Payload
	ok      bool
}

// New creates an Aggregator reading chunks from store.
func New(store storage.Store, opts Options) *Aggregator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: store, concurrency: opts.Concurrency, logger: logger}
}

// Aggregate fetches every entry, optionally filters each chunk by city with
// that entry's own root and city keys, and merges the survivors in ascending
// year order. A chunk that fails to load is skipped. When nothing survives
// the error is a NotFound.
func (a *Aggregator) Aggregate(ctx context.Context, entries []models.YearEntry, city string) (*Result, error) {
	ctx, span := otel.Tracer("aggregate").Start(ctx, "aggregate.years")
	defer span.End()
	span.SetAttributes(attribute.Int("aggregate.entries", len(entries)), attribute.Bool("aggregate.city", city != ""))

	sorted := SortByYear(entries)
	chunks := make([]chunk, len(sorted))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, ye := range sorted {
		g.Go(func() error {
			chunks[i] = a.fetchChunk(ctx, ye, city)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{}
	kept := make([]chunk, 0, len(chunks))
	for _, c := range chunks {
		if !c.ok {
			result.Skipped = append(result.Skipped, c.year)
			continue
		}
		kept = append(kept, c)
		result.Years = append(result.Years, c.year)
	}
	span.SetAttributes(attribute.Int("aggregate.kept", len(kept)))

	if len(kept) == 0 {
		if city != "" && len(sorted) > 0 {
			return nil, fmt.Errorf("%w: %s in any year", models.ErrCityNotFound, city)
		}
		return nil, models.ErrNoYearData
	}

	result.Payload = merge(kept)
	return result, nil
}

func (a *Aggregator) fetchChunk(ctx context.Context, ye models.YearEntry, city string) chunk {
	c := chunk{year: ye.Year}
	logger := a.logger.With(zap.String("year", ye.Year), zap.String("file", ye.Entry.File))

	raw, err := a.store.Read(ctx, ye.Entry.File)
	if err != nil {
		logger.Warn("Skipping year, fetch failed", zap.Error(err))
		return c
	}
	payload, err := dataset.Decode(raw)
	if err != nil {
		logger.Warn("Skipping year, decode failed", zap.Error(err))
		return c
	}
	payload, err = payload.Extract(ye.Entry.Root)
	if err != nil {
		logger.Warn("Skipping year, root not found", zap.Error(err))
		return c
	}
	if city != "" {
		payload, err = filter.ByCity(payload, city, ye.Entry.CityKeys)
		if err != nil {
			logger.Debug("Dropping year without city match", zap.String("city", city))
			return c
		}
	}

	c.payload = payload
	c.ok = true
	return c
}

// SortByYear returns the entries ordered by ascending numeric year. Non-numeric
// years order as 0; ties fall back to the year string.
func SortByYear(entries []models.YearEntry) []models.YearEntry {
	out := make([]models.YearEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		yi, yj := yearNumber(out[i].Year), yearNumber(out[j].Year)
		if yi != yj {
			return yi < yj
		}
		return out[i].Year < out[j].Year
	})
	return out
}

func yearNumber(year string) int {
	n, err := strconv.Atoi(year)
	if err != nil {
		return 0
	}
	return n
}

// yearValue is the JSON value stamped for a year: a number when the suffix is
// an integer, the original string otherwise.
func yearValue(year string) any {
	n, err := strconv.Atoi(year)
	if err != nil {
		return year
	}
	return json.Number(strconv.Itoa(n))
}

// merge combines chunks already in ascending year order. The strategy is
// chosen for all chunks at once: all sequences concatenate, all mappings
// merge keys, anything else is wrapped per year.
func merge(chunks []chunk) dataset.Payload {
	allSequences, allMappings := true, true
	for _, c := range chunks {
		allSequences = allSequences && c.payload.Shape == dataset.ShapeSequence
		allMappings = allMappings && c.payload.IsMapping()
	}

	switch {
	case allSequences:
		return concatRows(chunks)
	case allMappings:
		return mergeFields(chunks)
	default:
		return wrapYears(chunks)
	}
}

func concatRows(chunks []chunk) dataset.Payload {
	rows := make([]any, 0)
	for _, c := range chunks {
		stamp := yearValue(c.year)
		for _, row := range c.payload.Rows {
			rec, ok := row.(map[string]any)
			if !ok {
				rows = append(rows, row)
				continue
			}
			if _, has := rec[yearField]; !has {
				rec = maps.Clone(rec)
				rec[yearField] = stamp
			}
			rows = append(rows, rec)
		}
	}
	return dataset.Payload{Shape: dataset.ShapeSequence, Rows: rows}
}

// mergeFields keeps the earliest year's keys as they are. A later year whose
// key is already taken is stored under key_year, or key_year_N when that
// name is taken too. No value is ever overwritten.
func mergeFields(chunks []chunk) dataset.Payload {
	fields := make(map[string]any)
	for _, c := range chunks {
		for _, k := range sortedKeys(c.payload.Fields) {
			v := c.payload.Fields[k]
			if _, taken := fields[k]; taken {
				fields[freeKey(fields, k+"_"+c.year)] = v
				continue
			}
			fields[k] = v
		}
	}
	return dataset.FromValue(fields)
}

// freeKey returns base, or the first base_N (N >= 2) not present in fields.
func freeKey(fields map[string]any, base string) string {
	if _, taken := fields[base]; !taken {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "_" + strconv.Itoa(n)
		if _, taken := fields[candidate]; !taken {
			return candidate
		}
	}
}

func wrapYears(chunks []chunk) dataset.Payload {
	rows := make([]any, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, map[string]any{
			yearField: yearValue(c.year),
			"value":   c.payload.Raw(),
		})
	}
	return dataset.Payload{Shape: dataset.ShapeSequence, Rows: rows}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
