package handlers

import (
	"fmt"
	"strings"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// bookFilter carries the search parameters for the book listing. Values may
// arrive via the query string or the JSON body; body values win.
type bookFilter struct {
	Title  string `form:"title" json:"title"`
	Author string `form:"author" json:"author"`
	Genre  string `form:"genre" json:"genre"`

	YearFrom int `form:"year_from" json:"year_from"`
	YearTo   int `form:"year_to" json:"year_to"`

	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`

	SortBy    string `form:"sort_by" json:"sort_by"`
	SortOrder string `form:"sort_order" json:"sort_order"`
}

type listParams struct {
	TitlePattern  string
	AuthorPattern string
	GenrePattern  string
	YearFrom      int
	YearTo        int
	Limit         int
	Offset        int
	OrderBy       string
}

// Sort columns are whitelisted; the book id breaks ties so a fixed dataset
// always lists in the same order.
var sortColumns = map[string]string{
	"title":          "lower(b.title)",
	"published_year": "b.published_year",
	"author":         "lower(u.username)",
}

func buildListParams(filter bookFilter) (listParams, error) {
	params := listParams{
		TitlePattern:  likePattern(filter.Title),
		AuthorPattern: likePattern(filter.Author),
		GenrePattern:  likePattern(filter.Genre),
		YearFrom:      filter.YearFrom,
		YearTo:        filter.YearTo,
	}

	if params.YearFrom < 0 || params.YearTo < 0 {
		return listParams{}, fmt.Errorf("year_from and year_to must not be negative")
	}

	params.Limit = filter.Limit
	if params.Limit == 0 {
		params.Limit = defaultPageLimit
	}
	if params.Limit < 1 || params.Limit > maxPageLimit {
		return listParams{}, fmt.Errorf("limit must be between 1 and %d", maxPageLimit)
	}

	params.Offset = filter.Offset
	if params.Offset < 0 {
		return listParams{}, fmt.Errorf("offset must not be negative")
	}

	sortBy := strings.TrimSpace(filter.SortBy)
	if sortBy == "" {
		sortBy = "title"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return listParams{}, fmt.Errorf("sort_by must be one of: title, published_year, author")
	}

	direction := strings.ToLower(strings.TrimSpace(filter.SortOrder))
	if direction == "" {
		direction = "asc"
	}
	switch direction {
	case "asc":
		params.OrderBy = column + " ASC, b.id ASC"
	case "desc":
		params.OrderBy = column + " DESC, b.id ASC"
	default:
		return listParams{}, fmt.Errorf("sort_order must be asc or desc")
	}

	return params, nil
}

func likePattern(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return "%" + strings.ToLower(trimmed) + "%"
}
