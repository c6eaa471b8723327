// Package listing holds the pagination state of the user listing: the page
// cursor, the per-session view that caches the fetched page and the
// registry that keeps one view per session scope.
package listing

// Pager tracks the current page within 1..TotalPages. A zero TotalPages
// means the total is not known yet.
type Pager struct {
	page       int
	totalPages int
}

func NewPager() Pager {
	return Pager{page: 1}
}

func (p Pager) Page() int       { return p.page }
func (p Pager) TotalPages() int { return p.totalPages }
func (p Pager) HasPrev() bool   { return p.page > 1 }
func (p Pager) HasNext() bool   { return p.page < p.totalPages }

// Next moves forward one page, never past the last one. It reports whether
// the page changed.
func (p *Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.page++
	return true
}

// Prev moves back one page, never before the first one.
func (p *Pager) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.page--
	return true
}

// Goto jumps to n, clamped to the known range. Before the total is known
// only the lower bound applies.
func (p *Pager) Goto(n int) bool {
	if n < 1 {
		n = 1
	}
	if p.totalPages > 0 && n > p.totalPages {
		n = p.totalPages
	}
	if n == p.page {
		return false
	}
	p.page = n
	return true
}

// SetTotal records the total reported by the directory and clamps the
// current page into range. It reports whether the page moved.
func (p *Pager) SetTotal(total int) bool {
	if total < 1 {
		total = 1
	}
	p.totalPages = total
	if p.page > total {
		p.page = total
		return true
	}
	return false
}
