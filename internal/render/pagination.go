package render

import "git.home.luguber.info/inful/postforge/internal/graph"

// Pagination is the navigation block of a paginated listing.
type Pagination struct {
	Current     int
	Total       int
	FirstURL    string
	LastURL     string
	PrevURL     string
	NextURL     string
	JumpPrevURL string
	JumpNextURL string
	Pages       []PageLink
}

// PageLink is one numbered page link.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// NewPagination builds the navigation for page current of total, showing a
// window of at most window page numbers around the current page. It returns
// nil when there is a single page.
func NewPagination(k graph.Key, current, total, window int) *Pagination {
	if total <= 1 {
		return nil
	}
	if window <= 0 {
		window = 5
	}
	half := window / 2

	var start, end int
	switch {
	case total <= window:
		start, end = 1, total
	case current <= half+1:
		start, end = 1, window
	case current >= total-half:
		start, end = total-window+1, total
	default:
		start, end = current-half, current-half+window-1
	}

	p := &Pagination{
		Current:  current,
		Total:    total,
		FirstURL: k.PageURL(1),
		LastURL:  k.PageURL(total),
	}
	if current > 1 {
		p.PrevURL = k.PageURL(current - 1)
	}
	if current < total {
		p.NextURL = k.PageURL(current + 1)
	}
	if start > 1 {
		p.JumpPrevURL = k.PageURL(start - 1)
	}
	if end < total {
		p.JumpNextURL = k.PageURL(end + 1)
	}
	for n := start; n <= end; n++ {
		p.Pages = append(p.Pages, PageLink{Number: n, URL: k.PageURL(n), Current: n == current})
	}
	return p
}
