// Package arrests holds the pure domain logic for arrest analytics: city
// name normalization, charge tokenization and classification, time
// bucketing, and filter parsing. Everything here is side-effect free.
package arrests

import (
	"regexp"
	"strings"
)

// maSuffix matches a trailing ", MA" (with optional whitespace) on a city
// name, e.g. "NATICK, MA" or "NATICK ,MA".
var maSuffix = regexp.MustCompile(`,\s*MA$`)

// NormalizeCity canonicalizes a free-text city/town name so that "Natick",
// "NATICK" and "Natick, MA" aggregate under one key. Empty input
// normalizes to the empty string; callers exclude such rows from
// city-keyed aggregates.
func NormalizeCity(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = maSuffix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
