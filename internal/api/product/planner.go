package product

// The planner translates a normalized filter descriptor into two query
// plans — a count plan and a fetch plan — under Firestore's structural
// constraints: a query may range-filter at most one field, and its first
// sort key must be that field.
//
// Decision table for the effective sort field:
//
//	range predicate on      forced fetch sort field
//	----------------------  -----------------------
//	(none)                  requested sort field
//	price (min/max bounds)  price
//	name  (prefix search)   name
//
// The override replaces the requested sort field rather than rejecting the
// query; callers combining a range filter with a custom sort observe the
// overridden order.

// prefixUpperBound closes the name prefix range: name >= term AND
// name <= term + "" matches every string starting with term under
// Firestore's code-point ordering.
const prefixUpperBound = ""

// Operator is a store comparison operator in Firestore syntax.
type Operator string

const (
	OpEqual Operator = "=="
	OpIn    Operator = "in"
	OpGTE   Operator = ">="
	OpLTE   Operator = "<="
)

// Predicate is one filter clause of a plan.
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

// Plan is an executable query description: ordered predicates, an optional
// sort, and an optional pagination window. A plan with Limit == 0 carries
// no window (the count plan).
type Plan struct {
	Predicates []Predicate
	SortField  string
	SortDesc   bool
	Offset     int
	Limit      int
}

// Windowed reports whether the plan carries a pagination window.
func (p Plan) Windowed() bool {
	return p.Limit > 0
}

// BuildPlans produces the count plan and the fetch plan for a filter
// descriptor. Both share identical predicates; only the fetch plan carries
// sort and window, so the total count reflects all matches regardless of
// the page requested.
func BuildPlans(f ListFilters) (count Plan, fetch Plan) {
	var preds []Predicate

	// 1. Equality predicates.
	switch {
	case len(f.Categories) == 1:
		preds = append(preds, Predicate{Field: "category", Op: OpEqual, Value: f.Categories[0]})
	case len(f.Categories) > 1:
		preds = append(preds, Predicate{Field: "category", Op: OpIn, Value: f.Categories})
	}
	if f.Active != nil {
		preds = append(preds, Predicate{Field: "active", Op: OpEqual, Value: *f.Active})
	}

	// 2. At most one range predicate. A double-sided price range still
	// targets a single field, which the store permits. The price range takes
	// precedence over the prefix search; they are never combined.
	rangeField := ""
	if f.HasPriceRange() {
		rangeField = "price"
		if f.PriceMin != nil {
			preds = append(preds, Predicate{Field: "price", Op: OpGTE, Value: *f.PriceMin})
		}
		if f.PriceMax != nil {
			preds = append(preds, Predicate{Field: "price", Op: OpLTE, Value: *f.PriceMax})
		}
	} else if f.Search != "" {
		rangeField = "name"
		preds = append(preds,
			Predicate{Field: "name", Op: OpGTE, Value: f.Search},
			Predicate{Field: "name", Op: OpLTE, Value: f.Search + prefixUpperBound},
		)
	}

	// 3. Effective sort field, per the decision table above.
	sortField := f.SortBy
	if rangeField != "" {
		sortField = rangeField
	}

	count = Plan{Predicates: preds}
	fetch = Plan{
		Predicates: preds,
		SortField:  sortField,
		SortDesc:   f.Descending,
		Offset:     (f.Page - 1) * f.Limit,
		Limit:      f.Limit,
	}
	return count, fetch
}
