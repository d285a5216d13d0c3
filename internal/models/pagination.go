package models

const maxPageLimit = 100

// Page is the limit/offset window requested by a list call.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window, using fallback when no limit was requested.
func (p Page) Normalize(fallback int) Page {
	if p.Limit <= 0 {
		p.Limit = fallback
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Pagination describes a returned window.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// NewPagination computes hasMore as offset + limit < total.
func NewPagination(page Page, total int) Pagination {
	return Pagination{
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.Offset+page.Limit < total,
	}
}
