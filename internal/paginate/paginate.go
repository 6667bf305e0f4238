// Package paginate slices ordered listings into fixed-size, 1-based pages.
package paginate

import "strconv"

// PerPage is the page size of every post listing.
const PerPage = 10

// Paginator describes a listing of Total items split into pages of PerPage.
type Paginator struct {
	Total   int64
	PerPage int
}

// NumPages is never less than 1: an empty listing still has one empty page.
func (p Paginator) NumPages() int {
	if p.Total <= 0 || p.PerPage <= 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Clamp turns a raw ?page= value into a valid page number. Anything that is
// not an integer means page 1; out-of-range numbers move to the nearest page.
func (p Paginator) Clamp(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	if last := p.NumPages(); n > last {
		return last
	}
	return n
}

// Bounds returns the offset and limit of page n.
func (p Paginator) Bounds(n int) (offset, limit int) {
	if n < 1 {
		n = 1
	}
	return (n - 1) * p.PerPage, p.PerPage
}

// Page is one page of a listing plus what navigation needs.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Total    int64
}

func NewPage[T any](items []T, number int, p Paginator) Page[T] {
	return Page[T]{
		Items:    items,
		Number:   number,
		NumPages: p.NumPages(),
		Total:    p.Total,
	}
}

func (pg Page[T]) HasPrevious() bool { return pg.Number > 1 }
func (pg Page[T]) HasNext() bool     { return pg.Number < pg.NumPages }
func (pg Page[T]) HasOtherPages() bool {
	return pg.HasPrevious() || pg.HasNext()
}

func (pg Page[T]) PreviousNumber() int { return pg.Number - 1 }
func (pg Page[T]) NextNumber() int     { return pg.Number + 1 }

// Numbers lists every page number, for rendering the page links.
func (pg Page[T]) Numbers() []int {
	out := make([]int, pg.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
