package models

import "strings"

const DefaultPageSize = 10

// MaxPage bounds page numbers so offsets stay well inside an int.
const MaxPage = 1_000_000

// StatusFilter restricts active project listings by publication state.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusPublished StatusFilter = "published"
	StatusDraft     StatusFilter = "draft"
)

// ParseStatusFilter maps a raw query value to a filter. Unknown values mean no filter.
func ParseStatusFilter(raw string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPublished:
		return StatusPublished
	case StatusDraft:
		return StatusDraft
	default:
		return StatusAll
	}
}

// Published returns the is_published value to filter on, or nil for no filter.
func (f StatusFilter) Published() *bool {
	var v bool
	switch f {
	case StatusPublished:
		v = true
	case StatusDraft:
		v = false
	default:
		return nil
	}
	return &v
}

// ProjectPage is one page of a project listing.
type ProjectPage struct {
	Items    []Project    `json:"items"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Total    int64        `json:"total"`
	LastPage int          `json:"last_page"`
	Filter   StatusFilter `json:"filter,omitempty"`
}

// NewProjectPage fills in the derived fields.
func NewProjectPage(items []Project, page, pageSize int, total int64) *ProjectPage {
	if items == nil {
		items = []Project{}
	}
	lastPage := 1
	if pageSize > 0 && total > 0 {
		lastPage = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &ProjectPage{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		LastPage: lastPage,
	}
}

// NormalizePage clamps a 1-based page number to [1, MaxPage].
func NormalizePage(page int) int {
	switch {
	case page < 1:
		return 1
	case page > MaxPage:
		return MaxPage
	}
	return page
}
