package filters

import (
	"errors"
	"math"
	"strings"
)

const (
	AscSort  = "ASC"
	DescSort = "DESC"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Filters struct {
	Page         int      `schema:"page" validate:"omitempty,gte=1,lte=10000000"`
	PageSize     int      `schema:"page_size" validate:"omitempty,gte=1,lte=100"`
	Sort         string   `schema:"sort" validate:"omitempty,safesort"`
	SortSafelist []string `schema:"-" validate:"-"`
}

// WithDefaults fills the zero page and page size.
func (f Filters) WithDefaults() Filters {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.PageSize == 0 {
		f.PageSize = DefaultPageSize
	}
	return f
}

// SortIsSafe reports whether Sort is empty or names a safelisted column.
func (f *Filters) SortIsSafe() bool {
	if f.Sort == "" {
		return true
	}
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return true
		}
	}
	return false
}

// SortColumn panics on an unsafe column: callers validate with SortIsSafe first.
func (f *Filters) SortColumn() string {
	if f.Sort == "" {
		return "id"
	}
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return safeValue
		}
	}
	panic(errors.New("Unknown sort column: " + f.Sort))
}

func (f *Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return DescSort
	}
	return AscSort
}

func (f *Filters) Limit() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return min(f.PageSize, MaxPageSize)
}

func (f *Filters) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records"`
}

func CalculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}

var MovieSortSafelist = []string{"id", "title", "year", "rating", "duration", "cost", "created_at"}

type MovieQuery struct {
	Title     string  `schema:"title" validate:"omitempty,max=200"`
	Genre     string  `schema:"genre" validate:"omitempty,max=100"`
	MinRating float64 `schema:"min_rating" validate:"omitempty,gte=0,lte=10"`
	Filters
}

type ReviewQuery struct {
	MovieID int64 `schema:"movie_id" validate:"omitempty,gte=1"`
	UserID  int64 `schema:"-" validate:"-"`
	Filters
}
