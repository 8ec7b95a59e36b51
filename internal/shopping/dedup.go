package shopping

import "strings"

// Dedup returns the candidates that are not already on the list, keeping the
// first occurrence of each key and the candidates' order. Entries are
// trimmed but not unit-stripped, so "2 cups flour" and "flour" are distinct.
// Neither input is modified.
func Dedup(candidates, existing []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, e := range existing {
		seen[Key(e)] = struct{}{}
	}

	out := []string{}
	for _, c := range candidates {
		k := Key(c)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, strings.TrimSpace(c))
	}
	return out
}
