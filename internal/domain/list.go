package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPageSize is used when a list request does not specify one.
const DefaultPageSize = 20

// MaxPageSize caps client-supplied page sizes.
const MaxPageSize = 100

// ListFilter carries the optional list/search parameters. A zero value
// for any field means "no constraint", never "match empty". Filters are
// AND-combined; Search is a case-insensitive substring match OR-combined
// across a per-type column whitelist.
type ListFilter struct {
	Status   string     `json:"status,omitempty"`
	Type     string     `json:"type,omitempty"`
	Category string     `json:"category,omitempty"`
	Stage    string     `json:"stage,omitempty"`
	RegionID uuid.UUID  `json:"region_id,omitempty"`
	Search   string     `json:"search,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// Normalize clamps pagination parameters to sane values.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// Offset returns the row offset for the current page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// PageInfo describes one page of a filtered result set.
type PageInfo struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	Total       int  `json:"total"`
	HasNextPage bool `json:"has_next_page"`
}

// NewPageInfo computes page metadata from a total row count.
func NewPageInfo(filter ListFilter, total int) PageInfo {
	return PageInfo{
		Page:        filter.Page,
		PageSize:    filter.PageSize,
		Total:       total,
		HasNextPage: filter.Page*filter.PageSize < total,
	}
}
