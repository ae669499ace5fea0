package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ekoatlas/data-api/internal/utils"
)

const (
	segmentSource = "source"
	segmentV1     = "v1"
	jsonExt       = ".json"
)

// CityParams are the query parameters accepted for the city, in priority order.
var CityParams = []string{"cityname", "city", "il"}

// RequestKind tells how a data request is served.
type RequestKind int

const (
	// KindPassthrough reads a named source file directly.
	KindPassthrough RequestKind = iota + 1
	// KindQuery resolves a structured request through the section manifest.
	KindQuery
)

func (k RequestKind) String() string {
	switch k {
	case KindPassthrough:
		return "passthrough"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// DataQuery is the structured form of /v1/section/topic/digit/year/visualization.
type DataQuery struct {
	Section       Section
	Topic         string
	Digit         string
	Year          string
	Visualization string
}

// DataRequest is a classified inbound data request.
type DataRequest struct {
	Kind RequestKind
	// Source file path relative to the source tree, with the .json suffix. Set for KindPassthrough.
	SourcePath string
	// Set for KindQuery.
	Query DataQuery
	// Requested city, empty when no filtering applies.
	City string
}

// HasCity reports whether a city filter applies.
func (r *DataRequest) HasCity() bool {
	return r.City != ""
}

// ParseDataRequest classifies a request path. It looks for the first literal
// "source" or "v1" segment; everything before it is ignored so the router can
// be mounted under any prefix.
func ParseDataRequest(path string, query url.Values) (*DataRequest, error) {
	segments := splitPath(path)

	for i, seg := range segments {
		switch seg {
		case segmentSource:
			rel, err := sourcePath(segments[i+1:])
			if err != nil {
				return nil, err
			}
			return &DataRequest{Kind: KindPassthrough, SourcePath: rel, City: CityParam(query)}, nil
		case segmentV1:
			q, err := parseQuery(segments[i+1:])
			if err != nil {
				return nil, err
			}
			return &DataRequest{Kind: KindQuery, Query: q, City: CityParam(query)}, nil
		}
	}

	return nil, fmt.Errorf("%w: expected /source/<path> or /v1/<section>/<topic>/<digit>/<year>/<visualization>", ErrMalformedPath)
}

// CityParam returns the first non-empty city alias from the query, trimmed.
// "all" in any case or diacritic form means no filtering and yields "".
func CityParam(query url.Values) string {
	for _, name := range CityParams {
		v := strings.TrimSpace(query.Get(name))
		if v == "" {
			continue
		}
		if utils.NormalizeCity(v) == YearAll {
			return ""
		}
		return v
	}
	return ""
}

func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sourcePath(segments []string) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: missing source file", ErrMalformedPath)
	}
	for _, seg := range segments {
		if seg == "." || seg == ".." || strings.Contains(seg, "\\") {
			return "", fmt.Errorf("%w: invalid segment %q", ErrMalformedPath, seg)
		}
	}
	rel := strings.Join(segments, "/")
	if !strings.HasSuffix(strings.ToLower(rel), jsonExt) {
		rel += jsonExt
	}
	return rel, nil
}

func parseQuery(segments []string) (DataQuery, error) {
	if len(segments) != 5 {
		return DataQuery{}, fmt.Errorf("%w: want section/topic/digit/year/visualization, got %d segments", ErrMalformedPath, len(segments))
	}
	section, ok := ParseSection(segments[0])
	if !ok {
		return DataQuery{}, fmt.Errorf("%w: %q", ErrUnknownSection, segments[0])
	}
	return DataQuery{
		Section:       section,
		Topic:         segments[1],
		Digit:         segments[2],
		Year:          NormalizeYear(segments[3]),
		Visualization: segments[4],
	}, nil
}
