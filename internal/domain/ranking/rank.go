package ranking

import "slices"

// Ranked pairs an entity with its 1-based position in the full sorted
// sequence. Rank never restarts per page.
type Ranked[E Entity] struct {
	Rank   int `json:"rank"`
	Entity E   `json:"entity"`
}

// Rank stable-sorts a copy of entities with cmp and numbers the result 1..n.
// Entities that compare equal keep their input order and still receive
// distinct ranks: rank is a position, not an equivalence class.
func Rank[E Entity](entities []E, cmp Comparator) []Ranked[E] {
	sorted := slices.Clone(entities)
	slices.SortStableFunc(sorted, func(a, b E) int {
		return cmp(a, b)
	})

	out := make([]Ranked[E], len(sorted))
	for i, e := range sorted {
		out[i] = Ranked[E]{Rank: i + 1, Entity: e}
	}
	return out
}
