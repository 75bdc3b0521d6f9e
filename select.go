package negotiate

import (
	"cmp"
	"slices"
)

// Result is the outcome of Select. When Default is true, Negotiator is the
// registry's default negotiator and MediaType is the zero value.
type Result struct {
	Negotiator Negotiator
	MediaType  MediaType
	Default    bool
}

// Select picks the negotiator for the given Accept entries.
//
// Entries are ranked by quality, then by parameter count, then by their
// position in the header. For each entry in rank order the registered
// negotiators are asked in registration order; the first that can handle
// it wins. Scanning stops at the first entry with q=0, since it and every
// entry ranked after it are not acceptable. Anything else, including an
// empty or wildcard-only header, falls back to the default negotiator.
func Select(candidates []MediaType, reg *Registry) Result {
	snap := reg.load()
	fallback := Result{Negotiator: snap.def, Default: true}

	if onlyWildcards(candidates) {
		return fallback
	}

	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b MediaType) int {
		if c := cmp.Compare(b.Quality, a.Quality); c != 0 {
			return c
		}
		return cmp.Compare(b.ParamCount(), a.ParamCount())
	})

	for _, c := range ranked {
		// q=0 means "not acceptable".
		if c.Quality == 0 {
			break
		}
		for _, n := range snap.negotiators {
			if n.CanHandle(c) {
				return Result{Negotiator: n, MediaType: c}
			}
		}
	}

	return fallback
}

func onlyWildcards(candidates []MediaType) bool {
	for _, c := range candidates {
		if !c.IsWildcard() {
			return false
		}
	}
	return true
}
