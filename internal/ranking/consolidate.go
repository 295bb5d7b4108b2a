package ranking

import (
	"regexp"
	"sort"
	"strings"
)

// TitleMatcher decides when two works are editions of the same franchise
// entry. Implementations must be deterministic.
type TitleMatcher interface {
	// Normalize reduces a display title to its consolidation key.
	Normalize(title string) string
}

// seasonPatterns strip the edition suffixes sources attach to sequels and
// re-releases, so "Show Season 2" and "Show" collapse to one key.
var seasonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:season|series|part|cour)\s*\d+\b`),
	regexp.MustCompile(`\b\d+(?:st|nd|rd|th)\s+season\b`),
	regexp.MustCompile(`\bfinal\s+season\b`),
	regexp.MustCompile(`\b(?:the\s+)?(?:movie|film|ova|ona|specials?)\b`),
	regexp.MustCompile(`\b(?:remastered|definitive\s+edition|complete\s+edition)\b`),
	regexp.MustCompile(`\b(?:ii|iii|iv|v|vi|vii|viii|ix|x{1,3})\s*$`),
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// PatternMatcher is the default TitleMatcher: lowercase, strip punctuation,
// strip known edition suffixes, collapse whitespace.
type PatternMatcher struct{}

// Normalize implements TitleMatcher.
func (PatternMatcher) Normalize(title string) string {
	key := strings.ToLower(title)
	key = nonAlnum.ReplaceAllString(key, " ")
	for _, pattern := range seasonPatterns {
		key = pattern.ReplaceAllString(key, " ")
	}
	return strings.Join(strings.Fields(key), " ")
}

// consolidate groups records whose normalized titles collide, across work
// types, and keeps only the most popular edition of each group. Only the
// survivor's characters enter the ranking.
func consolidate(records []workRecord, matcher TitleMatcher) []workRecord {
	groups := make(map[string][]workRecord, len(records))
	order := make([]string, 0, len(records))
	for _, record := range records {
		key := matcher.Normalize(record.work.Title)
		if key == "" {
			// An unkeyable title never merges with anything.
			key = string(record.work.Type) + "/" + record.work.ID
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}

	kept := make([]workRecord, 0, len(groups))
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].work.Metadata.Popularity > group[j].work.Metadata.Popularity
		})
		kept = append(kept, group[0])
	}
	return kept
}
