// Package filter slices decoded payloads down to a single city.
package filter

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ekoatlas/data-api/internal/dataset"
	"github.com/ekoatlas/data-api/internal/models"
	"github.com/ekoatlas/data-api/internal/utils"
)

// DefaultCityKeys are the field names tried when a manifest entry carries no
// cityKeys of its own.
var DefaultCityKeys = []string{"city", "City", "cityname", "CityName", "cityname-tr", "il", "IL"}

// ByCity returns the part of p that belongs to city. Rows keep their original
// order. When nothing matches the error wraps models.ErrCityNotFound; an empty
// result is never returned as a success.
func ByCity(p dataset.Payload, city string, cityKeys []string) (dataset.Payload, error) {
	if len(cityKeys) == 0 {
		cityKeys = DefaultCityKeys
	}
	want := utils.NormalizeCity(city)

	switch p.Shape {
	case dataset.ShapeSequence:
		rows := make([]any, 0)
		for _, row := range p.Rows {
			rec, ok := row.(map[string]any)
			if ok && recordMatches(rec, want, cityKeys) {
				rows = append(rows, row)
			}
		}
		if len(rows) > 0 {
			return dataset.Payload{Shape: dataset.ShapeSequence, Rows: rows}, nil
		}

	case dataset.ShapeKeyedRecord, dataset.ShapeNamedDatasetMap:
		if recordMatches(p.Fields, want, cityKeys) {
			return p, nil
		}
		if v, ok := cityEntry(p.Fields, want); ok {
			return dataset.FromValue(v), nil
		}
	}

	return dataset.Payload{}, fmt.Errorf("%w: %s", models.ErrCityNotFound, city)
}

// recordMatches reports whether any alias field of rec names the city.
func recordMatches(rec map[string]any, want string, cityKeys []string) bool {
	for _, key := range cityKeys {
		s, ok := fieldString(rec[key])
		if ok && utils.NormalizeCity(s) == want {
			return true
		}
	}
	return false
}

// cityEntry finds a top-level key naming the city. When several keys fold to
// the same name the lexically smallest wins.
func cityEntry(fields map[string]any, want string) (any, bool) {
	var matches []string
	for k := range fields {
		if utils.NormalizeCity(k) == want {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.Strings(matches)
	return fields[matches[0]], true
}

func fieldString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), true
	case float64, int, int64, bool:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}
