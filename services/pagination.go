package services

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type ListQuery struct {
	Search   string
	Page     int
	PageSize int
}

func (q ListQuery) normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	// keep (Page-1)*PageSize representable
	if maxPage := math.MaxInt / q.PageSize; q.Page > maxPage {
		q.Page = maxPage
	}
	return q
}

func (q ListQuery) offset() int {
	return (q.Page - 1) * q.PageSize
}

type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalCount  int64 `json:"total_count"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

func newPage[T any](items []T, total int64, q ListQuery) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:       items,
		TotalCount:  total,
		CurrentPage: q.Page,
		PageSize:    q.PageSize,
		TotalPages:  int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
		HasNext:     int64(q.offset()+len(items)) < total,
		HasPrevious: q.Page > 1,
	}
}

// MapPage converts the items of a page, keeping its pagination metadata.
func MapPage[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	items := make([]U, len(p.Items))
	for i, item := range p.Items {
		items[i] = fn(item)
	}
	return &Page[U]{
		Items:       items,
		TotalCount:  p.TotalCount,
		CurrentPage: p.CurrentPage,
		PageSize:    p.PageSize,
		TotalPages:  p.TotalPages,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrevious,
	}
}
