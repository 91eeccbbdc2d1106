package pipeline

import (
	"sort"

	"cloud.google.com/go/civil"

	"github.com/jp1309/cooperativas/internal/accounts"
	"github.com/jp1309/cooperativas/internal/catalog"
	"github.com/jp1309/cooperativas/internal/income"
	"github.com/jp1309/cooperativas/internal/indicators"
	"github.com/jp1309/cooperativas/internal/source"
)

type dateRange struct {
	min, max civil.Date
	ok       bool
}

// tableStats carries the per-table columns the metadata document summarizes.
type tableStats struct {
	dates []civil.Date
	codes []string
}

func rangeOf(dates []civil.Date) dateRange {
	var r dateRange
	for _, d := range dates {
		if !r.ok {
			r = dateRange{min: d, max: d, ok: true}
			continue
		}
		if d.Before(r.min) {
			r.min = d
		}
		if d.After(r.max) {
			r.max = d
		}
	}
	return r
}

func rowDates(rows []source.Row) []civil.Date {
	out := make([]civil.Date, len(rows))
	for i, r := range rows {
		out[i] = r.Date
	}
	return out
}

func indicatorDates(recs []indicators.Record) []civil.Date {
	out := make([]civil.Date, len(recs))
	for i, r := range recs {
		out[i] = r.Date
	}
	return out
}

func incomeDates(recs []income.Record) []civil.Date {
	out := make([]civil.Date, len(recs))
	for i, r := range recs {
		out[i] = r.Date
	}
	return out
}

// accountLabels collects the distinct (code, label) pairs of the
// consolidated rows, first label wins.
func accountLabels(rows []source.Row) []accounts.Label {
	seen := make(map[string]bool, len(rows))
	var out []accounts.Label
	for _, r := range rows {
		if seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		out = append(out, accounts.Label{Code: r.Code, Name: r.Label})
	}
	return out
}

func rowCodes(rows []source.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Code
	}
	return out
}

func rowTiers(rows []source.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Tier
	}
	return out
}

func indicatorCodes(recs []indicators.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Code
	}
	return out
}

func indicatorTiers(recs []indicators.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Tier
	}
	return out
}

func incomeCodes(recs []income.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Code
	}
	return out
}

func distinctMonths(dates []civil.Date) int {
	seen := make(map[civil.Date]bool, len(dates))
	for _, d := range dates {
		seen[civil.Date{Year: d.Year, Month: d.Month, Day: 1}] = true
	}
	return len(seen)
}

func distinctStrings(vals []string) int {
	seen := make(map[string]bool, len(vals))
	for _, v := range vals {
		seen[v] = true
	}
	return len(seen)
}

func distinctTiers(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	var out []string
	for _, v := range vals {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func distinctInstitutions(rows []source.Row) int {
	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.Institution] = true
	}
	return len(seen)
}

func distinctIndicatorInstitutions(recs []indicators.Record) int {
	seen := make(map[string]bool)
	for _, r := range recs {
		seen[r.Institution] = true
	}
	return len(seen)
}

// missingHeadlineAccounts lists the headline balance-sheet concepts whose
// account codes never showed up in the consolidated history.
func missingHeadlineAccounts(h *accounts.Hierarchy) []string {
	var missing []string
	for concept, code := range catalog.BalanceAccounts {
		if h.Lookup(code) == nil {
			missing = append(missing, concept)
		}
	}
	sort.Strings(missing)
	return missing
}

func combineDiag(a, b source.Diagnostics) source.Diagnostics {
	a.Add(b)
	return a
}
