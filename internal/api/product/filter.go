package product

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	defaultSortField = "createdAt"
)

// validSortFields is the fixed set of fields a caller may sort on.
var validSortFields = map[string]struct{}{
	"price":     {},
	"createdAt": {},
	"name":      {},
}

// ListFilters is the normalized filter descriptor built from raw query
// parameters. It is captured once per request and never re-read.
type ListFilters struct {
	Categories []string
	Active     *bool
	PriceMin   *float64
	PriceMax   *float64
	Search     string
	SortBy     string
	Descending bool
	Page       int
	Limit      int
}

// HasPriceRange reports whether at least one price bound is set.
func (f ListFilters) HasPriceRange() bool {
	return f.PriceMin != nil || f.PriceMax != nil
}

// ParseListFilters normalizes raw query parameters, applying defaults
// (page=1, limit=10, sort=createdAt desc). Malformed numeric price bounds
// are treated as absent rather than rejected; strict rejection is the
// validation layer's job, not the normalizer's.
func ParseListFilters(values url.Values) ListFilters {
	f := ListFilters{
		SortBy:     defaultSortField,
		Descending: true,
		Page:       defaultPage,
		Limit:      defaultLimit,
	}

	if category := strings.TrimSpace(values.Get("category")); category != "" {
		if strings.Contains(category, ",") {
			seen := map[string]struct{}{}
			for _, c := range strings.Split(category, ",") {
				c = strings.TrimSpace(c)
				if c == "" {
					continue
				}
				if _, dup := seen[c]; dup {
					continue
				}
				seen[c] = struct{}{}
				f.Categories = append(f.Categories, c)
			}
		} else {
			f.Categories = []string{category}
		}
	}

	if active := values.Get("active"); active != "" {
		if b, err := strconv.ParseBool(active); err == nil {
			f.Active = &b
		}
	}

	if raw := values.Get("price_min"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			f.PriceMin = &v
		}
	}
	if raw := values.Get("price_max"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			f.PriceMax = &v
		}
	}

	// A search term needs at least two characters to be meaningful as a
	// prefix; shorter terms are dropped like other malformed inputs.
	if q := strings.TrimSpace(values.Get("q")); len([]rune(q)) >= 2 {
		f.Search = q
	}

	if sortBy := values.Get("sort_by"); sortBy != "" {
		if _, ok := validSortFields[sortBy]; ok {
			f.SortBy = sortBy
		}
	}
	if order := values.Get("order"); order == "asc" {
		f.Descending = false
	}

	if raw := values.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page >= 1 {
			f.Page = page
		}
	}
	if raw := values.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit >= 1 && limit <= maxLimit {
			f.Limit = limit
		}
	}

	return f
}
