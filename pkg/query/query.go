// Package query shapes list-endpoint parameters (page, limit, sort, search,
// resource filters) into a canonical form consumed by both the HTTP layer and
// the repository store.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/societyos/upkeep/pkg/db/option"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"

	DefaultLimit = 10
	MaxLimit     = 250
)

// Params is the canonical list-query shape. Filters hold resource-specific
// key/value pairs (status, bill_month, is_tenant, ...).
type Params struct {
	Page    int
	Limit   int
	SortBy  string
	Order   string
	Search  string
	Filters map[string]string
}

// Normalize clamps pagination bounds and drops unrecognized order values so
// stale client state degrades to defaults instead of erroring.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	switch strings.ToLower(strings.TrimSpace(p.Order)) {
	case OrderAsc:
		p.Order = OrderAsc
	case OrderDesc:
		p.Order = OrderDesc
	default:
		p.Order = ""
	}
	p.SortBy = strings.TrimSpace(p.SortBy)
	p.Search = strings.TrimSpace(p.Search)
	return p
}

// Encode renders the canonical query string. Key order is fixed (limit,
// order, page, search, sortBy, then filters sorted by key) and empty values
// are omitted, so identical parameter sets always produce byte-identical
// output.
func (p Params) Encode() string {
	p = p.Normalize()

	var sb strings.Builder
	appendPair := func(key, value string) {
		if value == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(value))
	}

	appendPair("limit", strconv.Itoa(p.Limit))
	appendPair("order", p.Order)
	appendPair("page", strconv.Itoa(p.Page))
	appendPair("search", p.Search)
	appendPair("sortBy", p.SortBy)

	keys := make([]string, 0, len(p.Filters))
	for key, value := range p.Filters {
		if strings.TrimSpace(value) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		appendPair(key, p.Filters[key])
	}

	return sb.String()
}

// Options bridges Params to repository query options. allowedSort whitelists
// sortable columns; searchColumns are matched case-insensitively.
func (p Params) Options(allowedSort map[string]bool, searchColumns ...string) []option.QueryOption {
	p = p.Normalize()

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			Allow: allowedSort,
			Field: p.SortBy,
			Desc:  p.Order != OrderAsc,
		}),
		option.WithPage(p.Page, p.Limit),
	}
	if p.Search != "" && len(searchColumns) > 0 {
		opts = append(opts, option.WithSearch(p.Search, searchColumns...))
	}
	return opts
}
