package client

import (
	"net/url"
	"strconv"
)

// LimitPresets are the page sizes a view offers.
var LimitPresets = []int{5, 10, 20, 50, 100}

// Pagination defaults used when the URL carries no usable value.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageState is the page and limit a product list view shows.
type PageState struct {
	Page  int
	Limit int
}

// PageStateFromQuery reads page and limit from a URL query, falling back to
// the defaults for missing or non-numeric values.
func PageStateFromQuery(q url.Values) PageState {
	return PageState{
		Page:  intOr(q.Get("page"), DefaultPage),
		Limit: intOr(q.Get("limit"), DefaultLimit),
	}
}

// PageStateFromURL is PageStateFromQuery for a raw URL.
func PageStateFromURL(raw string) (PageState, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return PageState{}, err
	}
	return PageStateFromQuery(u.Query()), nil
}

func intOr(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// Apply writes the state into q, keeping its other parameters.
func (s PageState) Apply(q url.Values) {
	q.Set("page", strconv.Itoa(s.Page))
	q.Set("limit", strconv.Itoa(s.Limit))
}

// URL returns u with the state written into its query.
func (s PageState) URL(u url.URL) string {
	q := u.Query()
	s.Apply(q)
	u.RawQuery = q.Encode()
	return u.String()
}

// PageCount is the number of pages total products fill.
func (s PageState) PageCount(total int64) int {
	if s.Limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(s.Limit) - 1) / int64(s.Limit))
}

// HasNext reports whether products exist past this page.
func (s PageState) HasNext(total int64) bool {
	return total > int64(s.Page)*int64(s.Limit)
}

// HasPrev reports whether this is not the first page.
func (s PageState) HasPrev() bool {
	return s.Page > 1
}

// Next moves one page forward.
func (s PageState) Next() PageState {
	s.Page++
	return s
}

// Prev moves one page back, never below the first page.
func (s PageState) Prev() PageState {
	s.Page = max(s.Page-1, 1)
	return s
}

// WithLimit changes the page size and returns to the first page.
func (s PageState) WithLimit(limit int) PageState {
	return PageState{Page: 1, Limit: limit}
}

// Fit snaps the limit to the nearest preset and clamps the page into
// [1, PageCount(total)]. With no products the page is 1.
func (s PageState) Fit(total int64) PageState {
	s.Limit = nearestPreset(s.Limit)
	last := max(s.PageCount(total), 1)
	s.Page = min(max(s.Page, 1), last)
	return s
}

// nearestPreset returns the preset closest to limit; ties go to the smaller.
func nearestPreset(limit int) int {
	best := LimitPresets[0]
	for _, p := range LimitPresets[1:] {
		if abs(p-limit) < abs(best-limit) {
			best = p
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
