// Package catalog translates catalog browsing state into backend queries and
// shareable URL query strings, and wraps the product endpoints.
package catalog

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/DavidAnato/AgriConnect/pkg/pagination"
)

// DefaultOrdering lists the newest products first.
const DefaultOrdering = "-created_at"

// Orderings accepted by the product listing.
var Orderings = []string{"-created_at", "created_at", "unit_price", "-unit_price", "name", "-name"}

// URL query keys.
const (
	keySearch   = "search"
	keyUnitType = "unit_type"
	keyCommune  = "commune"
	keyVillage  = "village"
	keyProducer = "producer"
	keyCategory = "category"
	keyOrdering = "ordering"
	keyPage     = "page"
	keyPageSize = "page_size"
)

// Query is the catalog filter, sort and page state.
type Query struct {
	Search     string `json:"search"`
	UnitType   string `json:"unit_type"`
	Commune    string `json:"commune"`
	Village    string `json:"village"`
	ProducerID int64  `json:"producer"`
	Category   string `json:"category"`
	Ordering   string `json:"ordering"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

// Default returns the initial browsing state.
func Default() Query {
	p := pagination.DefaultParams()
	return Query{Ordering: DefaultOrdering, Page: p.Page, PageSize: p.PageSize}
}

// Params returns the pagination part of q.
func (q Query) Params() pagination.Params {
	return pagination.Params{Page: q.Page, PageSize: q.PageSize}
}

// Values mirrors q into a URL query, keeping only values that differ from
// Default.
func (q Query) Values() url.Values {
	return q.Diff(Default())
}

// Diff returns the URL query of the fields of q that differ from base.
func (q Query) Diff(base Query) url.Values {
	v := url.Values{}
	setIf := func(key, val, def string) {
		if val != def {
			v.Set(key, val)
		}
	}

	setIf(keySearch, q.Search, base.Search)
	setIf(keyUnitType, q.UnitType, base.UnitType)
	setIf(keyCommune, q.Commune, base.Commune)
	setIf(keyVillage, q.Village, base.Village)
	if q.ProducerID != base.ProducerID && q.ProducerID > 0 {
		v.Set(keyProducer, strconv.FormatInt(q.ProducerID, 10))
	}
	setIf(keyCategory, q.Category, base.Category)
	setIf(keyOrdering, q.Ordering, base.Ordering)
	if q.Page != base.Page {
		v.Set(keyPage, strconv.Itoa(q.Page))
	}
	if q.PageSize != base.PageSize {
		v.Set(keyPageSize, strconv.Itoa(q.PageSize))
	}
	return v
}

// ParseQuery rebuilds a Query from a URL query written by Values. Unknown
// or invalid entries fall back to their defaults.
func ParseQuery(v url.Values) Query {
	return ParseQueryWith(v, Default())
}

// ParseQueryWith is ParseQuery relative to base.
func ParseQueryWith(v url.Values, base Query) Query {
	q := base
	q.Search = strings.TrimSpace(valueOr(v, keySearch, base.Search))
	q.UnitType = valueOr(v, keyUnitType, base.UnitType)
	q.Commune = valueOr(v, keyCommune, base.Commune)
	q.Village = valueOr(v, keyVillage, base.Village)
	q.Category = valueOr(v, keyCategory, base.Category)

	if raw := v.Get(keyProducer); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			q.ProducerID = id
		}
	}

	if o := v.Get(keyOrdering); slices.Contains(Orderings, o) {
		q.Ordering = o
	}

	p := pagination.FromValues(v, base.Params())
	q.Page, q.PageSize = p.Page, p.PageSize
	return q
}

func valueOr(v url.Values, key, def string) string {
	if s := v.Get(key); s != "" {
		return s
	}
	return def
}

// APIValues renders q with the listing endpoint's parameter names. Only
// published products are requested.
func (q Query) APIValues() url.Values {
	v := url.Values{}
	v.Set("is_published", "true")
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.UnitType != "" {
		v.Set("unit_type", q.UnitType)
	}
	if q.Commune != "" {
		v.Set("location_commune", q.Commune)
	}
	if q.Village != "" {
		v.Set("location_village", q.Village)
	}
	if q.ProducerID > 0 {
		v.Set("producer", strconv.FormatInt(q.ProducerID, 10))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	q.Params().Apply(v)
	return v
}
