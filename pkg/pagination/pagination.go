package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds limit/offset pagination parameters extracted from an API request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset returns the offset for the previous page.
// Returns 0 if the result would be negative.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}

// Page is page-number pagination for the server-rendered lists, which link
// to "?page=N" rather than offsets.
type Page struct {
	Number  int
	PerPage int
}

// PageFromContext reads the "page" query parameter. Missing or invalid
// values select the first page.
func PageFromContext(c echo.Context, perPage int) Page {
	n, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || n < 1 {
		n = 1
	}
	return Page{Number: n, PerPage: perPage}
}

// Params converts the page into limit/offset for repository queries.
func (p Page) Params() Params {
	return Params{Limit: p.PerPage, Offset: (p.Number - 1) * p.PerPage}
}

// PageResult describes the page a template is rendering.
type PageResult struct {
	Number     int
	PerPage    int
	Total      int
	TotalPages int
}

// Result clamps the page number to the available range.
func (p Page) Result(total int) PageResult {
	pages := 1
	if p.PerPage > 0 && total > 0 {
		pages = (total + p.PerPage - 1) / p.PerPage
	}
	n := p.Number
	if n > pages {
		n = pages
	}
	return PageResult{Number: n, PerPage: p.PerPage, Total: total, TotalPages: pages}
}

func (r PageResult) HasNext() bool     { return r.Number < r.TotalPages }
func (r PageResult) HasPrevious() bool { return r.Number > 1 }
func (r PageResult) Next() int         { return r.Number + 1 }
func (r PageResult) Previous() int     { return r.Number - 1 }
