package dto

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"retreat/shared/constant"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty"`
	Limit   int    `json:"limit"    validate:"omitempty"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
}

// FromRequest populates QueryParams from the HTTP request.
// Besides sort_by/sort_dir it accepts the compact form `sort=-created_at`, where a
// leading '-' means descending.
//
// With defaultRequest set, missing page/limit/sort fall back to the defaults in constant.
func (q *QueryParams) FromRequest(r *http.Request, defaultRequest bool) {
	queryParams := r.URL.Query()

	if page := queryParams.Get(constant.RequestParamPage); page != "" {
		if pageInt, err := strconv.Atoi(page); err == nil && pageInt > 0 {
			q.Page = pageInt
		}
	}

	if limit := queryParams.Get(constant.RequestParamLimit); limit != "" {
		if limitInt, err := strconv.Atoi(limit); err == nil && limitInt > 0 {
			q.Limit = min(limitInt, constant.MaxValueLimit)
		}
	}

	if sortBy := queryParams.Get(constant.RequestParamSortBy); sortBy != "" {
		q.SortBy = sortBy
	}

	if sortDir := queryParams.Get(constant.RequestParamSortDir); strings.ToUpper(sortDir) == SortDirAsc || strings.ToUpper(sortDir) == SortDirDesc {
		q.SortDir = strings.ToUpper(sortDir)
	}

	if sort := queryParams.Get(constant.RequestParamSort); sort != "" {
		q.SortBy, q.SortDir = ParseSort(sort)
	}

	if defaultRequest {
		if q.Page == 0 {
			q.Page = constant.DefaultValuePage
		}

		if q.Limit == 0 {
			q.Limit = constant.DefaultValueLimit
		}

		if q.SortBy == "" {
			q.SortBy = constant.DefaultValueSortBy
		}

		if q.SortDir == "" {
			q.SortDir = constant.DefaultValueSortDir
		}
	}
}

// ParseSort splits "-created_at" into ("created_at", DESC) and "name" into ("name", ASC).
func ParseSort(sort string) (field, dir string) {
	sort = strings.TrimSpace(sort)
	if strings.HasPrefix(sort, "-") {
		return strings.TrimPrefix(sort, "-"), SortDirDesc
	}

	return strings.TrimPrefix(sort, "+"), SortDirAsc
}

// Restrict drops a sort column that is not in allowed, so it never reaches ORDER BY.
func (q *QueryParams) Restrict(allowed ...string) {
	if q.SortBy != "" && !slices.Contains(allowed, q.SortBy) {
		q.SortBy = constant.DefaultValueSortBy
		q.SortDir = constant.DefaultValueSortDir
	}
}
