package probe

import (
	"errors"
	"fmt"
	"slices"

	"github.com/okian/aimrank/internal/domain/ranking"
)

// verify checks that pages, read in order, form one ranked list for spec:
// ranks run 1..n without gaps, every entity appears once, neighbours respect
// the sort direction and each page carries the expected window and
// navigation. beyond is the page after the last one and must be empty.
func verify(spec ranking.KeySpec, pages []Page, beyond Page) error {
	if len(pages) == 0 {
		return errors.New("no pages")
	}
	cmp, err := ranking.ResolveFor(spec.Kind, spec.Key)
	if err != nil {
		return err
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	head := pages[0].Pagination
	totalPages := head.TotalPages
	if want := ranking.TotalPages(head.TotalItems, head.PageSize); totalPages != want {
		fail("total_pages %d, want %d for %d items", totalPages, want, head.TotalItems)
	}

	var items []Item
	for i, p := range pages {
		n := i + 1
		pg := p.Pagination
		if pg.Page != n {
			fail("page %d reports page %d", n, pg.Page)
		}
		if pg.TotalItems != head.TotalItems || pg.TotalPages != totalPages {
			fail("page %d totals changed mid-walk", n)
		}
		if p.Sort.Key != string(spec.Key) {
			fail("page %d sorted by %q, want %q", n, p.Sort.Key, spec.Key)
		}
		if want := ranking.BuildWindow(n, totalPages); !slices.Equal(pg.Window, want) {
			fail("page %d window %v, want %v", n, pg.Window, want)
		}
		if want := ranking.Navigate(n, totalPages); pg.HasPrev != want.HasPrev || pg.HasNext != want.HasNext {
			fail("page %d navigation prev=%t next=%t, want prev=%t next=%t", n, pg.HasPrev, pg.HasNext, want.HasPrev, want.HasNext)
		}
		if n < totalPages && len(p.Items) != head.PageSize {
			fail("page %d holds %d items, want %d", n, len(p.Items), head.PageSize)
		}
		items = append(items, p.Items...)
	}

	if len(items) != head.TotalItems {
		fail("walked %d items, want %d", len(items), head.TotalItems)
	}

	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.Rank() != i+1 {
			fail("position %d carries rank %d", i+1, it.Rank())
		}
		id := it.EntityID()
		if _, dup := seen[id]; dup {
			fail("%q appears twice", id)
		}
		seen[id] = struct{}{}
		if i > 0 && cmp(items[i-1], it) > 0 {
			fail("rank %d (%s) sorts before rank %d (%s)", i+1, id, i, items[i-1].EntityID())
		}
	}

	if len(beyond.Items) != 0 {
		fail("page %d past the end holds %d items", totalPages+1, len(beyond.Items))
	}

	return errors.Join(errs...)
}
