// Package query filters and pages item collections for the listing endpoint.
//
// A listing runs in three steps: case-insensitive substring filtering on the
// item name, then either pagination (page and pageSize both given), legacy
// truncation (limit given) or nothing. Pagination produces a {data,
// pagination} envelope; the other modes produce a bare array. No sorting is
// performed, so results keep the order of the underlying collection.
package query

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/catalog-api/internal/model"
)

// Query parameter names.
const (
	ParamQuery    = "q"
	ParamLimit    = "limit"
	ParamPage     = "page"
	ParamPageSize = "pageSize"
)

// Params holds the parsed listing parameters.
type Params struct {
	Q string

	// Limit truncates the result when HasLimit is set and Paginate is not.
	Limit    int
	HasLimit bool

	// Page and PageSize are 1-indexed and only used when Paginate is set.
	Page     int
	PageSize int
	Paginate bool
}

// Result is either a bare item list or, when Pagination is set, an envelope.
type Result struct {
	Items      []model.Item
	Pagination *model.Pagination
}

// MarshalJSON encodes a bare array or a {data, pagination} envelope.
func (r Result) MarshalJSON() ([]byte, error) {
	items := r.Items
	if items == nil {
		items = []model.Item{}
	}

	if r.Pagination == nil {
		return json.Marshal(items)
	}

	return json.Marshal(model.ItemPage{
		Data:       items,
		Pagination: r.Pagination,
	})
}

// ParseParams extracts listing parameters from a query string.
//
// Pagination is enabled only when both page and pageSize are non-empty; a
// value that is not an integer is rejected with model.ErrInvalidPagination.
// A limit that is not a non-negative integer is ignored.
func ParseParams(values url.Values) (Params, error) {
	p := Params{Q: values.Get(ParamQuery)}

	rawPage := strings.TrimSpace(values.Get(ParamPage))
	rawPageSize := strings.TrimSpace(values.Get(ParamPageSize))
	if rawPage != "" && rawPageSize != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil {
			return Params{}, model.ErrInvalidPagination
		}
		pageSize, err := strconv.Atoi(rawPageSize)
		if err != nil {
			return Params{}, model.ErrInvalidPagination
		}
		p.Page, p.PageSize, p.Paginate = page, pageSize, true
	}

	if rawLimit := strings.TrimSpace(values.Get(ParamLimit)); rawLimit != "" {
		if limit, err := strconv.Atoi(rawLimit); err == nil && limit >= 0 {
			p.Limit, p.HasLimit = limit, true
		}
	}

	return p, nil
}

// Filter returns the items whose name contains q, ignoring case. An empty q
// matches everything. The input slice is not modified.
func Filter(items []model.Item, q string) []model.Item {
	if q == "" {
		return items
	}

	out := make([]model.Item, 0, len(items))
	for i := range items {
		if items[i].MatchesName(q) {
			out = append(out, items[i])
		}
	}
	return out
}

// List applies p to items.
func List(items []model.Item, p Params) (Result, error) {
	filtered := Filter(items, p.Q)

	switch {
	case p.Paginate:
		return paginate(filtered, p.Page, p.PageSize)
	case p.HasLimit:
		if p.Limit < len(filtered) {
			filtered = filtered[:p.Limit]
		}
		return Result{Items: filtered}, nil
	default:
		return Result{Items: filtered}, nil
	}
}

func paginate(items []model.Item, page, pageSize int) (Result, error) {
	if page < 1 || pageSize < 1 {
		return Result{}, model.ErrInvalidPagination
	}

	total := len(items)

	// Compared by division so huge page numbers cannot overflow.
	start := total
	if page-1 <= total/pageSize {
		start = min((page-1)*pageSize, total)
	}
	end := total
	if pageSize < total-start {
		end = start + pageSize
	}

	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	return Result{
		Items: items[start:end],
		Pagination: &model.Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    end < total,
		},
	}, nil
}
