package core

// mapping.go resolves file headers to canonical schema fields.
//
// Resolution runs an ordered list of matchers per field, in schema order.
// The first matcher that finds a header wins and the header is committed to
// that field; later fields never see it. Within one matcher, ties between
// several matching headers are broken by header text, never by column
// position, so reordering the columns of a file cannot change the mapping.

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/csvintake/internal/schema"
)

// Header is one header cell and its column position.
type Header struct {
	Name string
	Pos  int
}

// Matcher picks the header for field from the unclaimed candidates.
// Returns false when nothing matches.
type Matcher func(field schema.Field, candidates []Header) (Header, bool)

// ColumnMapping maps canonical field names to the header they resolved to.
type ColumnMapping map[string]Header

// StrictMatchers requires headers to equal canonical names exactly.
var StrictMatchers = []Matcher{MatchExact}

// FuzzyMatchers tries case-insensitive equality, substring containment,
// then the field's aliases.
var FuzzyMatchers = []Matcher{MatchFold, MatchSubstring, MatchAlias}

// MatchersFor returns the default matcher list for a schema's match mode.
func MatchersFor(mode schema.MatchMode) []Matcher {
	if mode == schema.MatchFuzzy {
		return FuzzyMatchers
	}
	return StrictMatchers
}

// MapColumns resolves every field of s against header using matchers.
// Returns *MissingColumnsError naming each unresolved field.
func MapColumns(header []string, s schema.Schema, matchers []Matcher) (ColumnMapping, error) {
	claimed := make(map[int]bool, len(header))
	mapping := make(ColumnMapping, len(s.Fields))
	var missing []string

	for _, field := range s.Fields {
		candidates := make([]Header, 0, len(header))
		for i, h := range header {
			if !claimed[i] {
				candidates = append(candidates, Header{Name: h, Pos: i})
			}
		}

		found := false
		for _, match := range matchers {
			if h, ok := match(field, candidates); ok {
				mapping[field.Name] = h
				claimed[h.Pos] = true
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, field.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Available: header}
	}
	return mapping, nil
}

// MatchExact matches a header equal to the canonical name, case-sensitive.
// The first occurrence wins when a header is duplicated.
func MatchExact(field schema.Field, candidates []Header) (Header, bool) {
	for _, h := range candidates {
		if h.Name == field.Name {
			return h, true
		}
	}
	return Header{}, false
}

// MatchFold matches a header equal to the canonical name ignoring case and
// surrounding whitespace.
func MatchFold(field schema.Field, candidates []Header) (Header, bool) {
	return best(candidates, func(h string) bool {
		return h == strings.ToLower(field.Name)
	})
}

// MatchSubstring matches when the canonical name contains the header or the
// header contains the canonical name, ignoring case.
func MatchSubstring(field schema.Field, candidates []Header) (Header, bool) {
	name := strings.ToLower(field.Name)
	return best(candidates, func(h string) bool {
		return strings.Contains(name, h) || strings.Contains(h, name)
	})
}

// MatchAlias matches the first alias, in declared order, that appears inside
// some header, ignoring case.
func MatchAlias(field schema.Field, candidates []Header) (Header, bool) {
	for _, alias := range field.Aliases {
		alias = strings.ToLower(alias)
		if h, ok := best(candidates, func(h string) bool {
			return strings.Contains(h, alias)
		}); ok {
			return h, true
		}
	}
	return Header{}, false
}

// best returns the preferred candidate whose normalized name satisfies pred.
// Blank headers never match. Shorter headers are preferred since they are
// closer to the pattern; remaining ties fall back to the header text.
func best(candidates []Header, pred func(normalized string) bool) (Header, bool) {
	var matches []Header
	for _, h := range candidates {
		n := normalizeHeader(h.Name)
		if n == "" {
			continue
		}
		if pred(n) {
			matches = append(matches, h)
		}
	}
	if len(matches) == 0 {
		return Header{}, false
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := normalizeHeader(matches[i].Name), normalizeHeader(matches[j].Name)
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		if a != b {
			return a < b
		}
		return matches[i].Name < matches[j].Name
	})
	return matches[0], true
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
