// Package pagination binds page query parameters and applies them to gorm
// queries.
package pagination

import "gorm.io/gorm"

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is the page requested through ?page=&page_size=.
type Pagination struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// New returns the first page with the default size.
func New() *Pagination {
	return &Pagination{Page: DefaultPage, PageSize: DefaultPageSize}
}

// NewWithSize returns the first page with size clamped to [1, MaxPageSize].
func NewWithSize(size int) *Pagination {
	return &Pagination{Page: DefaultPage, PageSize: clampSize(size)}
}

func clampSize(size int) int {
	switch {
	case size < 1:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	default:
		return size
	}
}

// Offset returns the number of rows before the page.
func (p *Pagination) Offset() int {
	page := p.Page
	if page < 1 {
		page = DefaultPage
	}
	return (page - 1) * p.Limit()
}

// Limit returns the page size.
func (p *Pagination) Limit() int {
	return clampSize(p.PageSize)
}

// Scope limits a query to the page, for use with (*gorm.DB).Scopes.
func (p *Pagination) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Limit())
}

// PageInfo describes a page in API responses.
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// Info returns the page description for a result set of total rows.
func (p *Pagination) Info(total int64) PageInfo {
	size := int64(p.Limit())
	pages := int((total + size - 1) / size)
	page := p.Offset()/p.Limit() + 1
	return PageInfo{
		Page:       page,
		PageSize:   int(size),
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}
