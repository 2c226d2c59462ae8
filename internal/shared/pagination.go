package shared

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// AdminPageSize is the fixed page size of every administration listing.
const AdminPageSize = 6

const maxListPage = math.MaxInt / AdminPageSize

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"current_page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"last_page"`
}

// NewPagination computes pagination metadata. The page is clamped so the
// offset always fits in an int.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	if maxPage := math.MaxInt / perPage; page > maxPage {
		page = maxPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the number of rows to skip for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one page of a listing plus its metadata.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPage wraps rows, never returning a nil slice so payloads encode as [].
func NewPage[T any](rows []T, pagination Pagination) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	return Page[T]{Data: rows, Pagination: pagination}
}

// ListFilters carries the search term and requested page of a listing.
type ListFilters struct {
	Search string
	Page   int
	Limit  int
}

// Pagination returns pagination metadata for the filters against total rows.
func (f ListFilters) Pagination(total int) Pagination {
	return NewPagination(f.Page, f.Limit, total)
}

// Echo returns the filters echoed back to the client. Absent search stays absent.
func (f ListFilters) Echo() EchoedFilters {
	return EchoedFilters{Search: f.Search}
}

// EchoedFilters is the filter block returned with every listing.
type EchoedFilters struct {
	Search string `json:"search,omitempty"`
}

// ParseListFilters reads search and page from the query string. The page size is
// fixed and cannot be chosen by the caller.
func ParseListFilters(q url.Values) ListFilters {
	// Atoi saturates on overflow, so huge values land on the last representable page.
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	if page > maxListPage {
		page = maxListPage
	}
	return ListFilters{
		Search: strings.TrimSpace(q.Get("search")),
		Page:   page,
		Limit:  AdminPageSize,
	}
}
