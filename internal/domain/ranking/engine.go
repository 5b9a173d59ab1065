package ranking

// View is everything a presentation layer needs to render one ranked page.
type View[E Entity] struct {
	SortKey     SortKey
	Items       []Ranked[E]
	CurrentPage int
	PageSize    int
	TotalItems  int
	TotalPages  int
	Window      Window
	Navigation  Navigation
}

// Build resolves key, ranks entities, slices the requested page and derives
// the navigation window. Sort and page state stay with the caller; nothing is
// retained between calls.
func Build[E Entity](entities []E, key SortKey, currentPage, pageSize int) (View[E], error) {
	cmp, err := Resolve(key)
	if err != nil {
		return View[E]{}, err
	}
	return build(entities, key, cmp, currentPage, pageSize)
}

// BuildFor is Build with the sort key checked against kind.
func BuildFor[E Entity](kind Kind, entities []E, key SortKey, currentPage, pageSize int) (View[E], error) {
	cmp, err := ResolveFor(kind, key)
	if err != nil {
		return View[E]{}, err
	}
	return build(entities, key, cmp, currentPage, pageSize)
}

func build[E Entity](entities []E, key SortKey, cmp Comparator, currentPage, pageSize int) (View[E], error) {
	ranked := Rank(entities, cmp)
	page, err := Slice(ranked, PageRequest{CurrentPage: currentPage, PageSize: pageSize})
	if err != nil {
		return View[E]{}, err
	}
	return View[E]{
		SortKey:     key,
		Items:       page.Items,
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalItems:  len(ranked),
		TotalPages:  page.TotalPages,
		Window:      BuildWindow(currentPage, page.TotalPages),
		Navigation:  Navigate(currentPage, page.TotalPages),
	}, nil
}
