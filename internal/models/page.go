package models

// Page is one page of a listing
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// LastPage returns the number of the last page (at least 1)
func (p Page[T]) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// PageRequest is a normalized page number and size
type PageRequest struct {
	Page    int
	PerPage int
}

// MaxPage is the highest page number served
const MaxPage = 100000

// NewPageRequest clamps page and perPage into sane bounds
func NewPageRequest(page, perPage, defaultPerPage, maxPerPage int) PageRequest {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}

// Offset returns the row offset of the page
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PerPage
}
