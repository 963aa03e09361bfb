package render

import "fmt"

// windowRadius is how many page buttons are shown on each side of the
// current page.
const windowRadius = 2

type PageButton struct {
	Page   int // zero-based
	Label  string
	Active bool
}

type NavButton struct {
	Page     int
	Disabled bool
}

type Pagination struct {
	Prev  NavButton
	Pages []PageButton
	Next  NavButton
}

// Window builds the page control for a zero-based page. It returns nil when
// there is at most one page.
func Window(page, total, pageSize int) *Pagination {
	if pageSize <= 0 || total <= 0 {
		return nil
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages <= 1 {
		return nil
	}
	page = min(max(page, 0), totalPages-1)

	p := &Pagination{
		Prev: NavButton{Page: page - 1, Disabled: page == 0},
		Next: NavButton{Page: page + 1, Disabled: page == totalPages-1},
	}
	start := max(0, page-windowRadius)
	end := min(totalPages-1, page+windowRadius)
	for i := start; i <= end; i++ {
		p.Pages = append(p.Pages, PageButton{Page: i, Label: fmt.Sprint(i + 1), Active: i == page})
	}
	return p
}

// PageInfo is the "a-b de N produtos" line. page is clamped like Window.
func PageInfo(page, total, pageSize int) string {
	if total <= 0 || pageSize <= 0 {
		return "0 produtos"
	}
	page = min(max(page, 0), (total-1)/pageSize)
	start := page*pageSize + 1
	end := min((page+1)*pageSize, total)
	return fmt.Sprintf("%d-%d de %d produtos", start, end, total)
}
