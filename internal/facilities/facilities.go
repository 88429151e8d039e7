// Package facilities normalizes free-text Italian prison facility names to
// canonical identities so events and snapshots aggregate across sources.
package facilities

import (
	"sort"
	"strings"
	"unicode"
)

// Table holds the immutable alias and region lookup data for a Normalizer.
// Build one at startup (DefaultTable or LoadTable) and pass it around; the
// normalizer never mutates it.
type Table struct {
	// Aliases maps a canonical facility name to the lowercase variants it
	// is reported under.
	Aliases map[string][]string `yaml:"aliases"`

	// Regions maps a lowercase city/facility keyword to its region.
	Regions map[string]string `yaml:"regions"`
}

// institutional prefixes stripped before alias matching
var namePrefixes = []string{
	"casa circondariale di ",
	"casa circondariale ",
	"casa di reclusione di ",
	"casa di reclusione ",
	"carcere di ",
	"istituto penitenziario di ",
	"istituto penale per minorenni di ",
}

// aliasEntry pairs one lowercase alias with its canonical facility name.
type aliasEntry struct {
	alias     string
	canonical string
}

// regionEntry pairs one lowercase keyword with its region.
type regionEntry struct {
	keyword string
	region  string
}

// Normalizer maps raw facility names to canonical ones and infers regions.
// Lookup order is fixed at construction time so the same input always
// resolves to the same canonical name: normalized names are dedup keys and
// must not depend on map iteration order.
type Normalizer struct {
	table          Table
	aliasCanonical map[string]string // lowercase alias -> canonical name
	aliasOrder     []aliasEntry      // longest alias first, ties lexicographic
	regionOrder    []regionEntry     // longest keyword first, ties lexicographic
}

// NewNormalizer builds a normalizer from an alias/region table.
func NewNormalizer(table Table) *Normalizer {
	reverse := make(map[string]string)
	var ordered []aliasEntry
	for canonical, aliases := range table.Aliases {
		for _, alias := range aliases {
			lower := strings.ToLower(alias)
			reverse[lower] = canonical
			ordered = append(ordered, aliasEntry{alias: lower, canonical: canonical})
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].alias) != len(ordered[j].alias) {
			return len(ordered[i].alias) > len(ordered[j].alias)
		}
		return ordered[i].alias < ordered[j].alias
	})

	var regions []regionEntry
	for keyword, region := range table.Regions {
		regions = append(regions, regionEntry{keyword: strings.ToLower(keyword), region: region})
	}
	sort.Slice(regions, func(i, j int) bool {
		if len(regions[i].keyword) != len(regions[j].keyword) {
			return len(regions[i].keyword) > len(regions[j].keyword)
		}
		return regions[i].keyword < regions[j].keyword
	})

	return &Normalizer{table: table, aliasCanonical: reverse, aliasOrder: ordered, regionOrder: regions}
}

// Normalize maps a raw facility name to its canonical form. Unknown names
// degrade to a cleaned title-cased version rather than failing; the empty
// string is returned only for empty input. Normalize is a fixed point:
// Normalize(Normalize(s)) == Normalize(s).
func (n *Normalizer) Normalize(name string) string {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	if cleaned == "" {
		return ""
	}

	stripped := stripPrefix(cleaned)
	stripped = strings.TrimSpace(strings.NewReplacer("'", "", `"`, "").Replace(stripped))

	if canonical, ok := n.aliasCanonical[cleaned]; ok {
		return canonical
	}
	if canonical, ok := n.aliasCanonical[stripped]; ok {
		return canonical
	}

	// Substring containment against longer aliases, longest first. Short
	// aliases are skipped: "asti" would match inside "Via Gorgastica".
	for _, entry := range n.aliasOrder {
		if len(entry.alias) < 5 {
			continue
		}
		if strings.Contains(cleaned, entry.alias) || strings.Contains(stripped, entry.alias) {
			return entry.canonical
		}
	}

	// No match: best-effort cleanup of the original casing.
	result := strings.TrimSpace(name)
	lower := strings.ToLower(result)
	for _, prefix := range namePrefixes {
		if strings.HasPrefix(lower, prefix) {
			result = result[len(prefix):]
			break
		}
	}
	result = strings.TrimSpace(result)
	if result == "" {
		return ""
	}
	return titleCase(result)
}

// Region infers the Italian region from a facility name (normalized or raw)
// by keyword containment. Returns "" when no keyword matches.
func (n *Normalizer) Region(facility string) string {
	if facility == "" {
		return ""
	}
	lower := strings.ToLower(facility)
	for _, entry := range n.regionOrder {
		if strings.Contains(lower, entry.keyword) {
			return entry.region
		}
	}
	return ""
}

// Canonicals returns the canonical facility names known to the table.
func (n *Normalizer) Canonicals() []string {
	names := make([]string, 0, len(n.table.Aliases))
	for canonical := range n.table.Aliases {
		names = append(names, canonical)
	}
	return names
}

func stripPrefix(s string) string {
	for _, prefix := range namePrefixes {
		if strings.HasPrefix(s, prefix) {
			return s[len(prefix):]
		}
	}
	return s
}

// titleCase uppercases the first letter of each space-separated word,
// leaving the rest of each word untouched so canonical forms like
// "Canton Mombello (Brescia)" survive a second pass unchanged.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		for j, r := range runes {
			if unicode.IsLetter(r) {
				runes[j] = unicode.ToUpper(r)
				break
			}
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
