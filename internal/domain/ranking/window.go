package ranking

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Window layout constants. They are part of the navigation contract.
const (
	// maxVisiblePages is the page count up to which every page is listed.
	maxVisiblePages = 5
	// leadingPages is how close to either end the current page may be before
	// the window pins to that end.
	leadingPages = 3
	// neighborPages is the context shown on each side of a middle page.
	neighborPages = 1
)

// ellipsisLabel is the wire form of an ellipsis token.
const ellipsisLabel = "ellipsis"

// PageToken is either a concrete page number or an ellipsis marker.
type PageToken struct {
	Page     int
	Ellipsis bool
}

// PageNumber returns a numeric token.
func PageNumber(n int) PageToken { return PageToken{Page: n} }

// Gap returns an ellipsis token.
func Gap() PageToken { return PageToken{Ellipsis: true} }

func (t PageToken) String() string {
	if t.Ellipsis {
		return "..."
	}
	return strconv.Itoa(t.Page)
}

// MarshalJSON encodes numbers as JSON numbers and gaps as "ellipsis".
func (t PageToken) MarshalJSON() ([]byte, error) {
	if t.Ellipsis {
		return json.Marshal(ellipsisLabel)
	}
	return json.Marshal(t.Page)
}

// UnmarshalJSON accepts either form written by MarshalJSON. Any other string
// is rejected.
func (t *PageToken) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != ellipsisLabel {
			return fmt.Errorf("page token: unexpected string %q", s)
		}
		*t = Gap()
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = PageNumber(n)
	return nil
}

// Window is the ordered sequence of navigation tokens.
type Window []PageToken

// Navigation tells the caller whether previous/next controls are enabled.
type Navigation struct {
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

// BuildWindow computes the compact page-number window for current out of total.
//
//	total <= 5            1 2 3 4 5
//	current <= 3          1 2 3 4 … total
//	current >= total-2    1 … total-3 total-2 total-1 total
//	otherwise             1 … current-1 current current+1 … total
func BuildWindow(current, total int) Window {
	if total <= 0 {
		return Window{}
	}
	if total <= maxVisiblePages {
		return pageRange(1, total)
	}

	w := Window{PageNumber(1)}
	switch {
	case current <= leadingPages:
		w = append(w, pageRange(2, leadingPages+1)...)
		w = append(w, Gap(), PageNumber(total))
	case current >= total-(leadingPages-1):
		w = append(w, Gap())
		w = append(w, pageRange(total-leadingPages, total)...)
	default:
		w = append(w, Gap())
		w = append(w, pageRange(current-neighborPages, current+neighborPages)...)
		w = append(w, Gap(), PageNumber(total))
	}
	return w
}

// Navigate derives the prev/next state. Prev is off on page 1, next is off on
// the last page, and both are off when there are no pages.
func Navigate(current, total int) Navigation {
	if total <= 0 {
		return Navigation{}
	}
	return Navigation{
		HasPrev: current > 1,
		HasNext: current < total,
	}
}

func pageRange(from, to int) Window {
	w := make(Window, 0, to-from+1)
	for p := from; p <= to; p++ {
		w = append(w, PageNumber(p))
	}
	return w
}
