package models

import "strings"

// ManifestEntry points a key at a data file plus optional extraction hints.
type ManifestEntry struct {
	// Storage path of the data file, e.g. repo/source/CrSt/export/2/2019/data.json
	File string `json:"file"`
	// Dot-path locating the row collection inside the decoded document. Empty means the whole payload.
	Root string `json:"root,omitempty"`
	// Field-name aliases used for city matching. Empty means the default alias list.
	CityKeys []string `json:"cityKeys,omitempty"`
}

// Manifest maps serialized keys to entries for a single section.
type Manifest map[string]ManifestEntry

// Lookup returns the entry stored under key.
func (m Manifest) Lookup(key Key) (ManifestEntry, bool) {
	entry, ok := m[key.String()]
	return entry, ok
}

// YearEntry is a per-year manifest entry of a series.
type YearEntry struct {
	Year  string
	Entry ManifestEntry
}

// YearEntries returns every entry sharing key's year prefix, excluding the
// "all" entry. Order is unspecified; callers sort.
func (m Manifest) YearEntries(key Key) []YearEntry {
	prefix := key.YearPrefix()
	var out []YearEntry
	for k, entry := range m {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		year := strings.TrimPrefix(k, prefix)
		if year == "" || year == YearAll || strings.Contains(year, keySeparator) {
			continue
		}
		out = append(out, YearEntry{Year: year, Entry: entry})
	}
	return out
}
