package catalog

import "strings"

// DefaultSuggestLimit caps the number of autocomplete suggestions.
const DefaultSuggestLimit = 8

// SuggestMatches returns autocomplete suggestions for query out of pool:
// prefix matches first, then substring matches, each group in pool order,
// deduplicated and capped at limit. A blank query yields nothing.
func SuggestMatches(query string, pool []string, limit int) []string {
	q := strings.TrimSpace(Normalize(query))
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	var starts, incl []string
	seen := make(map[string]bool, len(pool))
	for _, name := range pool {
		if seen[name] {
			continue
		}
		seen[name] = true
		n := Normalize(name)
		switch {
		case strings.HasPrefix(n, q):
			starts = append(starts, name)
		case strings.Contains(n, q):
			incl = append(incl, name)
		}
	}

	out := append(starts, incl...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
