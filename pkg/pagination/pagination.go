package pagination

import (
	"net/url"
	"strconv"
)

// MaxPageSize caps the page size a caller may request.
const MaxPageSize = 100

// Params holds pagination parameters exchanged with the backend as
// page/page_size query values.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultParams returns the storefront pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:     1,
		PageSize: 10,
	}
}

// FromValues extracts pagination parameters from query values, falling back
// to def for missing or invalid entries.
func FromValues(q url.Values, def Params) Params {
	p := def

	if page := q.Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if size := q.Get("page_size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 && v <= MaxPageSize {
			p.PageSize = v
		}
	}

	return p
}

// Apply writes the parameters into q.
func (p Params) Apply(q url.Values) {
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("page_size", strconv.Itoa(p.PageSize))
}

// Page is the paginated list envelope returned by the backend.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results" validate:"dive"`
}

// TotalPages returns the number of pages needed for count items.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 0
	}
	pages := count / pageSize
	if count%pageSize > 0 {
		pages++
	}
	return pages
}

// Result wraps one page of a server-paginated listing with the figures a
// pager needs.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult builds a Result from a backend page and the parameters that
// requested it. The server count is trusted as-is.
func NewResult[T any](page Page[T], params Params) Result[T] {
	totalPages := TotalPages(page.Count, params.PageSize)
	data := page.Results
	if data == nil {
		data = []T{}
	}

	return Result[T]{
		Data:       data,
		TotalCount: page.Count,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
