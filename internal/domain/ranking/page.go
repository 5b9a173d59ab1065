package ranking

import "fmt"

// PageRequest selects one page. CurrentPage is 1-based.
type PageRequest struct {
	CurrentPage int
	PageSize    int
}

// PageResult is one page of a ranked sequence.
type PageResult[E Entity] struct {
	Items      []Ranked[E]
	TotalPages int
}

// TotalPages returns ceil(count/size), and 0 for an empty collection.
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Slice returns the entries at global positions
// [(CurrentPage-1)*PageSize, CurrentPage*PageSize) clipped to the collection.
//
// A page past the end is not an error: the collection may have shrunk since
// the caller picked the page, so it gets an empty page and can reset.
func Slice[E Entity](ranked []Ranked[E], req PageRequest) (PageResult[E], error) {
	if req.PageSize <= 0 {
		return PageResult[E]{}, fmt.Errorf("%w: %d", ErrInvalidPageSize, req.PageSize)
	}
	if req.CurrentPage < 1 {
		return PageResult[E]{}, fmt.Errorf("%w: %d", ErrOutOfRangePage, req.CurrentPage)
	}

	total := TotalPages(len(ranked), req.PageSize)
	if req.CurrentPage > total {
		return PageResult[E]{Items: []Ranked[E]{}, TotalPages: total}, nil
	}

	start := (req.CurrentPage - 1) * req.PageSize
	end := min(start+req.PageSize, len(ranked))

	items := make([]Ranked[E], end-start)
	copy(items, ranked[start:end])
	return PageResult[E]{Items: items, TotalPages: total}, nil
}
