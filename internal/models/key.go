package models

import (
	"strings"
)

const (
	// YearAll is the synthetic year that asks for every available year.
	YearAll = "all"
	// DigitNone is the digit placeholder used by layouts without a digit level.
	DigitNone = "none"

	keySeparator = ":"
)

// Key is the canonical manifest lookup identifier
// section:visualization:topic:digit:year.
type Key struct {
	Section       Section
	Visualization string
	Topic         string
	Digit         string
	Year          string
}

func (k Key) String() string {
	return strings.Join([]string{string(k.Section), k.Visualization, k.Topic, k.Digit, k.Year}, keySeparator)
}

// YearPrefix returns the key without its year, including the trailing
// separator. Every per-year key of the same series shares this prefix.
func (k Key) YearPrefix() string {
	return strings.Join([]string{string(k.Section), k.Visualization, k.Topic, k.Digit, ""}, keySeparator)
}

// WithYear returns a copy of k with the year replaced.
func (k Key) WithYear(year string) Key {
	k.Year = year
	return k
}

// IsAllYears reports whether the key targets the synthetic "all" year.
func (k Key) IsAllYears() bool {
	return k.Year == YearAll
}

// ParseKey splits a serialized key. It fails when the string does not have
// exactly five parts.
func ParseKey(s string) (Key, bool) {
	parts := strings.Split(s, keySeparator)
	if len(parts) != 5 {
		return Key{}, false
	}
	return Key{
		Section:       Section(parts[0]),
		Visualization: parts[1],
		Topic:         parts[2],
		Digit:         parts[3],
		Year:          parts[4],
	}, true
}

// NormalizeYear trims the token and canonicalizes any casing of "all".
func NormalizeYear(year string) string {
	year = strings.TrimSpace(year)
	if strings.EqualFold(year, YearAll) {
		return YearAll
	}
	return year
}
