// Package income turns the year-to-date income statement values the
// regulator publishes into monthly flows and trailing-12-month sums.
package income

import (
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/jp1309/cooperativas/internal/balance"
	"github.com/jp1309/cooperativas/internal/catalog"
	"github.com/jp1309/cooperativas/internal/source"
)

// Record is one income-statement observation with its derived values. The
// published figure is accumulated since January; Monthly is the de-accumulated
// flow and Trailing12 the rolling sum, present only once twelve observations
// exist.
type Record struct {
	Date          civil.Date
	Tier          string
	Institution   string
	Code          string
	Label         string
	Accumulated   float64
	Monthly       float64
	Trailing12    float64
	HasTrailing12 bool
}

// Stats counts the observations where de-accumulation had to restart from
// the accumulated value because the preceding month was missing.
type Stats struct {
	Restarts int
}

// FromRows filters statement rows down to the income-statement chapters,
// collapses duplicates and unifies tiers. Prefixes name the chapter codes
// that the income statement spans.
func FromRows(rows []source.Row, prefixes []string) []source.Row {
	var kept []source.Row
	for _, r := range rows {
		for _, p := range prefixes {
			if strings.HasPrefix(r.Code, p) {
				if r.Label == "" {
					r.Label = catalog.IncomeStatementAccounts[r.Code]
				}
				kept = append(kept, r)
				break
			}
		}
	}
	kept = balance.Aggregate(kept)
	balance.UnifyTiers(kept)
	return kept
}

const trailingWindow = 12

// Derive computes the monthly flow and trailing-12 sum for every
// (institution, account) series. Within a calendar year the flow is the
// difference from the immediately preceding month; the January value, or any
// observation whose preceding month is missing, is taken as the flow itself.
func Derive(rows []source.Row) ([]Record, Stats) {
	type key struct {
		institution string
		code        string
	}
	series := make(map[key][]source.Row)
	var order []key
	for _, r := range rows {
		k := key{r.Institution, r.Code}
		if _, seen := series[k]; !seen {
			order = append(order, k)
		}
		series[k] = append(series[k], r)
	}

	var out []Record
	var stats Stats
	for _, k := range order {
		obs := series[k]
		sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

		window := make([]float64, 0, trailingWindow)
		for i, r := range obs {
			rec := Record{
				Date:        r.Date,
				Tier:        r.Tier,
				Institution: r.Institution,
				Code:        r.Code,
				Label:       r.Label,
				Accumulated: r.Amount,
			}
			switch {
			case r.Date.Month == 1:
				rec.Monthly = r.Amount
			case i > 0 && precedesInYear(obs[i-1].Date, r.Date):
				rec.Monthly = r.Amount - obs[i-1].Amount
			default:
				// No adjacent prior month to subtract; the accumulated
				// value is the best available flow.
				rec.Monthly = r.Amount
				stats.Restarts++
			}

			window = append(window, rec.Monthly)
			if len(window) > trailingWindow {
				window = window[1:]
			}
			if len(window) == trailingWindow {
				sum := 0.0
				for _, v := range window {
					sum += v
				}
				rec.Trailing12 = sum
				rec.HasTrailing12 = true
			}
			out = append(out, rec)
		}
	}

	sortRecords(out)
	return out, stats
}

// precedesInYear reports whether a is the month immediately before b within
// the same calendar year.
func precedesInYear(a, b civil.Date) bool {
	return a.Year == b.Year && int(a.Month)+1 == int(b.Month)
}

func sortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
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
