package product

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evalPredicate applies one plan predicate to a product, mirroring the
// store's comparison semantics closely enough for planner tests.
func evalPredicate(p Product, pred Predicate) bool {
	switch pred.Field {
	case "category":
		if pred.Op == OpIn {
			for _, c := range pred.Value.([]string) {
				if p.Category == c {
					return true
				}
			}
			return false
		}
		return p.Category == pred.Value.(string)
	case "active":
		return p.Active == pred.Value.(bool)
	case "price":
		v := pred.Value.(float64)
		switch pred.Op {
		case OpGTE:
			return p.Price >= v
		case OpLTE:
			return p.Price <= v
		}
	case "name":
		v := pred.Value.(string)
		switch pred.Op {
		case OpGTE:
			return p.Name >= v
		case OpLTE:
			return p.Name <= v
		}
	}
	return false
}

// evalPlan executes a plan against an in-memory document set: filter,
// sort, then window, in the same order the store applies them.
func evalPlan(docs []Product, plan Plan) []Product {
	matched := []Product{}
	for _, d := range docs {
		ok := true
		for _, pred := range plan.Predicates {
			if !evalPredicate(d, pred) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, d)
		}
	}

	if plan.SortField != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			var less bool
			switch plan.SortField {
			case "price":
				less = matched[i].Price < matched[j].Price
			case "name":
				less = matched[i].Name < matched[j].Name
			default:
				less = matched[i].CreatedAt < matched[j].CreatedAt
			}
			if plan.SortDesc {
				return !less && !equalOn(matched[i], matched[j], plan.SortField)
			}
			return less
		})
	}

	if plan.Windowed() {
		if plan.Offset >= len(matched) {
			return []Product{}
		}
		end := plan.Offset + plan.Limit
		if end > len(matched) {
			end = len(matched)
		}
		return matched[plan.Offset:end]
	}
	return matched
}

func equalOn(a, b Product, field string) bool {
	switch field {
	case "price":
		return a.Price == b.Price
	case "name":
		return a.Name == b.Name
	default:
		return a.CreatedAt == b.CreatedAt
	}
}

func seedCatalog() []Product {
	docs := []Product{}
	categories := []string{"futbol", "tenis", "running"}
	for i := 0; i < 30; i++ {
		docs = append(docs, Product{
			ID:        fmt.Sprintf("p%02d", i),
			Name:      fmt.Sprintf("Item %02d", i),
			Price:     float64(1000 + i*500),
			Category:  categories[i%len(categories)],
			Active:    i%4 != 0,
			CreatedAt: fmt.Sprintf("2024-01-%02dT00:00:00Z", i+1),
		})
	}
	// A few prefix-search targets at known prices.
	docs = append(docs,
		Product{ID: "b1", Name: "Balón Pro", Price: 45000, Category: "futbol", Active: true, CreatedAt: "2024-02-01T00:00:00Z"},
		Product{ID: "b2", Name: "Balón Liga", Price: 2000, Category: "futbol", Active: true, CreatedAt: "2024-02-02T00:00:00Z"},
		Product{ID: "r1", Name: "Raqueta Elite", Price: 46000, Category: "tenis", Active: true, CreatedAt: "2024-02-03T00:00:00Z"},
	)
	return docs
}

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

func TestBuildPlans_CountAndFetchShareFilters(t *testing.T) {
	f := ListFilters{
		Categories: []string{"futbol"},
		Active:     bptr(true),
		PriceMin:   fptr(1000),
		SortBy:     "createdAt",
		Descending: true,
		Page:       2,
		Limit:      10,
	}

	count, fetch := BuildPlans(f)

	assert.Equal(t, count.Predicates, fetch.Predicates, "both plans must carry identical predicates")
	assert.False(t, count.Windowed(), "count plan must not be windowed")
	assert.Empty(t, count.SortField, "count plan must not sort")
	assert.Equal(t, 10, fetch.Limit)
	assert.Equal(t, 10, fetch.Offset)
}

func TestBuildPlans_MultiCategoryEqualsUnionOfSingles(t *testing.T) {
	docs := seedCatalog()

	multi := ListFilters{Categories: []string{"futbol", "tenis"}, SortBy: "createdAt", Descending: true, Page: 1, Limit: 100}
	countPlan, _ := BuildPlans(multi)

	require.Len(t, countPlan.Predicates, 1)
	assert.Equal(t, OpIn, countPlan.Predicates[0].Op)

	union := map[string]struct{}{}
	for _, cat := range []string{"futbol", "tenis"} {
		single, _ := BuildPlans(ListFilters{Categories: []string{cat}, SortBy: "createdAt", Descending: true, Page: 1, Limit: 100})
		for _, d := range evalPlan(docs, single) {
			union[d.ID] = struct{}{}
		}
	}

	merged := evalPlan(docs, countPlan)
	assert.Equal(t, len(union), len(merged), "IN predicate must match the union of the single-category filters")
	for _, d := range merged {
		_, ok := union[d.ID]
		assert.True(t, ok, "document %s missing from the union", d.ID)
	}
}

func TestBuildPlans_PriceRangeTakesPrecedenceOverSearch(t *testing.T) {
	docs := seedCatalog()

	f := ListFilters{
		Search:     "Balón",
		PriceMin:   fptr(44000),
		SortBy:     "createdAt",
		Descending: true,
		Page:       1,
		Limit:      100,
	}
	_, fetch := BuildPlans(f)

	for _, pred := range fetch.Predicates {
		assert.NotEqual(t, "name", pred.Field, "search term must be ignored when a price bound is present")
	}

	results := evalPlan(docs, fetch)
	ids := map[string]bool{}
	for _, d := range results {
		ids[d.ID] = true
	}
	// Prefix match below the range is excluded; non-matching name inside
	// the range is included.
	assert.False(t, ids["b2"], "Balón Liga is under the price floor and must be excluded")
	assert.True(t, ids["b1"])
	assert.True(t, ids["r1"], "Raqueta Elite is inside the range despite not matching the prefix")
}

func TestBuildPlans_PrefixSearchRange(t *testing.T) {
	docs := seedCatalog()

	f := ListFilters{Search: "Balón", SortBy: "createdAt", Descending: true, Page: 1, Limit: 100}
	_, fetch := BuildPlans(f)

	require.Len(t, fetch.Predicates, 2)
	assert.Equal(t, Predicate{Field: "name", Op: OpGTE, Value: "Balón"}, fetch.Predicates[0])
	assert.Equal(t, Predicate{Field: "name", Op: OpLTE, Value: "Balón" + prefixUpperBound}, fetch.Predicates[1])

	results := evalPlan(docs, fetch)
	require.Len(t, results, 2)
	for _, d := range results {
		assert.Contains(t, []string{"b1", "b2"}, d.ID)
	}
}

func TestBuildPlans_SortFieldDecisionTable(t *testing.T) {
	cases := []struct {
		name     string
		filters  ListFilters
		wantSort string
	}{
		{
			name:     "no range keeps requested sort",
			filters:  ListFilters{SortBy: "name", Page: 1, Limit: 10},
			wantSort: "name",
		},
		{
			name:     "price range forces price sort",
			filters:  ListFilters{SortBy: "name", PriceMin: fptr(100), Page: 1, Limit: 10},
			wantSort: "price",
		},
		{
			name:     "single price bound still forces price sort",
			filters:  ListFilters{SortBy: "createdAt", PriceMax: fptr(100), Page: 1, Limit: 10},
			wantSort: "price",
		},
		{
			name:     "prefix search forces name sort",
			filters:  ListFilters{SortBy: "price", Search: "Bal", Page: 1, Limit: 10},
			wantSort: "name",
		},
		{
			name:     "range on the requested field changes nothing",
			filters:  ListFilters{SortBy: "price", PriceMin: fptr(100), Page: 1, Limit: 10},
			wantSort: "price",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, fetch := BuildPlans(tc.filters)
			assert.Equal(t, tc.wantSort, fetch.SortField)
		})
	}
}

func TestBuildPlans_WindowProperties(t *testing.T) {
	docs := seedCatalog()

	for _, page := range []int{1, 2, 3, 4, 10} {
		for _, limit := range []int{1, 5, 10, 100} {
			f := ListFilters{SortBy: "createdAt", Descending: true, Page: page, Limit: limit}
			countPlan, fetchPlan := BuildPlans(f)

			total := len(evalPlan(docs, countPlan))
			fetched := evalPlan(docs, fetchPlan)

			assert.LessOrEqual(t, len(fetched), limit,
				"page=%d limit=%d: fetch result must fit the limit", page, limit)
			remaining := total - fetchPlan.Offset
			if remaining < 0 {
				remaining = 0
			}
			assert.LessOrEqual(t, len(fetched), remaining,
				"page=%d limit=%d: fetch result must fit what remains past the offset", page, limit)
		}
	}
}

func TestBuildPlans_PageBeyondLastIsEmptyNotError(t *testing.T) {
	docs := seedCatalog()

	f := ListFilters{SortBy: "createdAt", Descending: true, Page: 100, Limit: 10}
	countPlan, fetchPlan := BuildPlans(f)

	assert.Empty(t, evalPlan(docs, fetchPlan))
	assert.Equal(t, len(docs), len(evalPlan(docs, countPlan)), "total count ignores the requested page")
}

func TestBuildPlans_NoMatchesIsZeroCountSuccess(t *testing.T) {
	docs := seedCatalog()

	f := ListFilters{Categories: []string{"natacion"}, SortBy: "createdAt", Descending: true, Page: 1, Limit: 10}
	countPlan, fetchPlan := BuildPlans(f)

	assert.Empty(t, evalPlan(docs, countPlan))
	assert.Empty(t, evalPlan(docs, fetchPlan))
}
