package notify

// Ellipsis marks a gap in the page numbers returned by VisiblePageNumbers.
const Ellipsis = 0

// Page is one page of a paginated list.
type Page[T any] struct {
	Items       []T
	TotalPages  int
	CurrentPage int
	HasNext     bool
	HasPrev     bool
}

// Paginate returns page (1-indexed) of items. Out-of-range pages are clamped.
// An empty list has zero total pages and yields page 1.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = 1
	}
	total := (len(items) + perPage - 1) / perPage
	current := max(1, min(page, max(total, 1)))

	start := min((current-1)*perPage, len(items))
	end := min(current*perPage, len(items))

	return Page[T]{
		Items:       items[start:end],
		TotalPages:  total,
		CurrentPage: current,
		HasNext:     current < total,
		HasPrev:     current > 1,
	}
}

// TotalPages returns the number of pages for total items, at least 1.
func TotalPages(total, perPage int) int {
	if perPage <= 0 {
		perPage = 1
	}
	return max(1, (total+perPage-1)/perPage)
}

// VisiblePageNumbers picks which page buttons to show. The first and last
// pages are always included and gaps are marked with Ellipsis.
func VisiblePageNumbers(current, total, maxVisible int) []int {
	if maxVisible <= 0 {
		maxVisible = 5
	}

	if total <= maxVisible {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	side := (maxVisible - 3) / 2
	pages := []int{1}

	start := max(2, current-side)
	end := min(total-1, current+side)

	if current <= side+2 {
		end = min(total-1, maxVisible-1)
	} else if current >= total-side-1 {
		start = max(2, total-maxVisible+2)
	}

	if start > 2 {
		pages = append(pages, Ellipsis)
	}
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	if end < total-1 {
		pages = append(pages, Ellipsis)
	}

	return append(pages, total)
}
