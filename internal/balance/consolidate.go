// Package balance consolidates monthly balance rows across yearly extracts
// into one continuous history, reprocessing incrementally: previously
// consolidated months are never re-read, only months dated after the stored
// maximum are appended.
package balance

import (
	"sort"

	"cloud.google.com/go/civil"

	"github.com/jp1309/cooperativas/internal/source"
)

// MaxDate returns the latest reporting date in the set, and false when the
// set is empty.
func MaxDate(rows []source.Row) (civil.Date, bool) {
	if len(rows) == 0 {
		return civil.Date{}, false
	}
	max := rows[0].Date
	for _, r := range rows[1:] {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return max, true
}

// Merge appends to prev the rows of next dated strictly after prev's maximum.
// Re-running with the same inputs produces the same output, and months
// already consolidated are never touched.
func Merge(prev, next []source.Row) []source.Row {
	cutoff, ok := MaxDate(prev)
	if !ok {
		out := make([]source.Row, len(next))
		copy(out, next)
		return out
	}
	out := make([]source.Row, len(prev), len(prev)+len(next))
	copy(out, prev)
	for _, r := range next {
		if r.Date.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate collapses rows that canonicalization made identical in
// (date, institution, code) by summing their amounts. The first seen tier,
// RUC and label win.
func Aggregate(rows []source.Row) []source.Row {
	type key struct {
		date        civil.Date
		institution string
		code        string
	}
	index := make(map[key]int, len(rows))
	out := make([]source.Row, 0, len(rows))
	for _, r := range rows {
		k := key{r.Date, r.Institution, r.Code}
		if i, ok := index[k]; ok {
			out[i].Amount += r.Amount
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// UnifyTiers rewrites every institution's tier across its whole history to
// the tier it reported at its latest date, so a cooperative promoted between
// tiers carries a single classification.
func UnifyTiers(rows []source.Row) {
	type latest struct {
		date civil.Date
		tier string
	}
	current := make(map[string]latest)
	for _, r := range rows {
		l, ok := current[r.Institution]
		if !ok || r.Date.After(l.date) {
			current[r.Institution] = latest{date: r.Date, tier: r.Tier}
		}
	}
	for i := range rows {
		rows[i].Tier = current[rows[i].Institution].tier
	}
}

// Sort orders rows by date, tier, institution and account code, the order
// the published tables use.
func Sort(rows []source.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.Institution != b.Institution {
			return a.Institution < b.Institution
		}
		return a.Code < b.Code
	})
}

// Consolidate runs the full sequence on freshly read rows against the stored
// history: aggregate duplicates, merge incrementally, unify tiers, sort.
func Consolidate(prev, next []source.Row) []source.Row {
	merged := Merge(prev, Aggregate(next))
	UnifyTiers(merged)
	Sort(merged)
	return merged
}
