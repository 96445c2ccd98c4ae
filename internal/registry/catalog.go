package registry

import (
	"sort"

	"chatrelay/pkg/types"
)

// catalog is the table of models the relay is willing to serve. Upstream may
// advertise more; anything outside this table is filtered out.
var catalog = map[string]types.Model{
	"llama3-8b-8192": {
		ID:         "llama3-8b-8192",
		Name:       "LLaMA 3 8B",
		MaxLength:  24576,
		TokenLimit: 8192,
	},
	"llama3-70b-8192": {
		ID:         "llama3-70b-8192",
		Name:       "LLaMA 3 70B",
		MaxLength:  24576,
		TokenLimit: 8192,
	},
	"mixtral-8x7b-32768": {
		ID:         "mixtral-8x7b-32768",
		Name:       "Mixtral 8x7B",
		MaxLength:  98304,
		TokenLimit: 32768,
	},
}

// Lookup returns catalog metadata for id.
func Lookup(id string) (types.Model, bool) {
	m, ok := catalog[id]
	return m, ok
}

// All returns every catalog model sorted by id. This doubles as the static
// fallback list when the upstream model query fails.
func All() []types.Model {
	out := make([]types.Model, 0, len(catalog))
	for _, m := range catalog {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Intersect maps upstream model ids onto catalog entries, dropping ids the
// catalog does not know. Order follows the catalog (sorted by id), not the
// upstream, so the list is stable across providers.
func Intersect(upstreamIDs []string) []types.Model {
	seen := make(map[string]bool, len(upstreamIDs))
	for _, id := range upstreamIDs {
		seen[id] = true
	}
	var out []types.Model
	for _, m := range All() {
		if seen[m.ID] {
			out = append(out, m)
		}
	}
	return out
}
