// Package manifest maps the source directory tree to manifest keys, builds
// the per-section manifest documents and resolves requests against them.
//
// The directory convention is declared once in this file. The builder
// (KeyFromPath) and the request side (RequestKey) both derive keys through
// layout.key, so the two can not drift apart.
package manifest

import (
	"strings"

	"github.com/ekoatlas/data-api/internal/models"
)

type dimension int

const (
	dimTopic dimension = iota
	dimDigit
	dimYear
)

// layout describes how one visualization of a section is laid out on disk.
type layout struct {
	// Canonical visualization token written into keys.
	visualization string
	// Folder levels after the section (and visualization) folder, in order.
	dims []dimension
	// Values for dimensions that have no folder level.
	fixedDigit string
	fixedYear  string
}

// convention is the directory convention of one section.
type convention struct {
	section models.Section
	// vizFolder is true when the folder after the section names the visualization.
	vizFolder bool
	layouts   []layout
}

var (
	topicDigitYear = []dimension{dimTopic, dimDigit, dimYear}

	conventions = map[models.Section]convention{
		// CrSt/<topic>/<digit>/<year>/<file>.json
		models.SectionCurrentStatus: {
			section: models.SectionCurrentStatus,
			layouts: []layout{{visualization: "CrSt", dims: topicDigitYear}},
		},
		// EcSt/pie/<topic>/<digit>/<year>/<file>.json
		// EcSt/timeline/<topic>/<digit>/<file>.json  (year is always "all")
		// EcSt/heatmap/<topic>/<year>/<file>.json    (digit is always "none")
		models.SectionEconomicStructure: {
			section:   models.SectionEconomicStructure,
			vizFolder: true,
			layouts: []layout{
				{visualization: "pie", dims: topicDigitYear},
				{visualization: "timeline", dims: []dimension{dimTopic, dimDigit}, fixedYear: models.YearAll},
				{visualization: "heatmap", dims: []dimension{dimTopic, dimYear}, fixedDigit: models.DigitNone},
			},
		},
		// StSp/<topic>/<digit>/<year>/<file>.json
		models.SectionStateSpace: {
			section: models.SectionStateSpace,
			layouts: []layout{{visualization: "StSp", dims: topicDigitYear}},
		},
		// PrSp/<viz>/<topic>/<digit>/<year>/<file>.json
		models.SectionProductSpace: {
			section:   models.SectionProductSpace,
			vizFolder: true,
			layouts: []layout{
				{visualization: "PrSpaceNACE", dims: topicDigitYear},
				{visualization: "PrSpaceGTIP", dims: topicDigitYear},
				{visualization: "PrSpaceGTIPWorld", dims: topicDigitYear},
			},
		},
		// Latent/<viz>/<topic>/<digit>/<year>/<file>.json
		models.SectionLatentFactors: {
			section:   models.SectionLatentFactors,
			vizFolder: true,
			layouts: []layout{
				{visualization: "Latent1", dims: topicDigitYear},
				{visualization: "Latent2", dims: topicDigitYear},
				{visualization: "Latent3", dims: topicDigitYear},
				{visualization: "Latent4", dims: topicDigitYear},
			},
		},
	}
)

// key builds the manifest key for the given dimension values. Fixed
// dimensions override whatever the caller passed.
func (l layout) key(section models.Section, topic, digit, year string) models.Key {
	if l.fixedDigit != "" {
		digit = l.fixedDigit
	}
	if l.fixedYear != "" {
		year = l.fixedYear
	}
	return keyOf(section, l.visualization, topic, digit, year)
}

func keyOf(section models.Section, viz, topic, digit, year string) models.Key {
	return models.Key{
		Section:       section,
		Visualization: viz,
		Topic:         strings.TrimSpace(topic),
		Digit:         strings.TrimSpace(digit),
		Year:          models.NormalizeYear(year),
	}
}

// folderLayout returns the layout a directory name selects. Folder names
// match exactly.
func (c convention) folderLayout(folder string) (layout, bool) {
	for _, l := range c.layouts {
		if l.visualization == folder {
			return l, true
		}
	}
	return layout{}, false
}

// requestLayout returns the layout a request's visualization selects.
// Folderless sections have a single layout that ignores the token.
func (c convention) requestLayout(viz string) (layout, bool) {
	if !c.vizFolder {
		return c.layouts[0], true
	}
	viz = strings.TrimSpace(viz)
	for _, l := range c.layouts {
		if strings.EqualFold(l.visualization, viz) {
			return l, true
		}
	}
	return layout{}, false
}

// KeyFromPath derives the manifest key of a data file from its path relative
// to the source root, e.g. "EcSt/heatmap/trade/2019/data.json". Paths outside
// every convention, and paths too shallow for their layout, yield false.
func KeyFromPath(rel string) (models.Key, bool) {
	parts := strings.Split(strings.Trim(strings.ReplaceAll(rel, "\\", "/"), "/"), "/")
	if len(parts) < 2 || !isJSONFile(parts[len(parts)-1]) {
		return models.Key{}, false
	}

	conv, ok := conventions[models.Section(parts[0])]
	if !ok {
		return models.Key{}, false
	}

	rest := parts[1:]
	var l layout
	if conv.vizFolder {
		l, ok = conv.folderLayout(rest[0])
		if !ok {
			return models.Key{}, false
		}
		rest = rest[1:]
	} else {
		l = conv.layouts[0]
	}

	// Every dimension needs a folder, and a file must follow them.
	if len(rest) < len(l.dims)+1 {
		return models.Key{}, false
	}

	var topic, digit, year string
	for i, d := range l.dims {
		switch d {
		case dimTopic:
			topic = rest[i]
		case dimDigit:
			digit = rest[i]
		case dimYear:
			year = rest[i]
		}
	}
	return l.key(conv.section, topic, digit, year), true
}

// RequestKey derives the manifest key a structured request resolves to.
// Unknown visualizations of folder-dispatched sections keep the token as
// given; such keys simply do not exist in the manifest.
func RequestKey(q models.DataQuery) models.Key {
	conv, ok := conventions[q.Section]
	if !ok {
		return keyOf(q.Section, q.Visualization, q.Topic, q.Digit, q.Year)
	}
	l, ok := conv.requestLayout(q.Visualization)
	if !ok {
		return keyOf(conv.section, strings.TrimSpace(q.Visualization), q.Topic, q.Digit, q.Year)
	}
	return l.key(conv.section, q.Topic, q.Digit, q.Year)
}

func isJSONFile(name string) bool {
	return len(name) > len(".json") && strings.EqualFold(name[len(name)-len(".json"):], ".json")
}
