// Package indicators extracts the regulator's prudential indicator panel
// (the CAMEL-style ratio set) from workbook pivot caches into long-form
// records.
package indicators

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/jp1309/cooperativas/internal/catalog"
	"github.com/jp1309/cooperativas/internal/entity"
	"github.com/jp1309/cooperativas/internal/source"
)

// Record is one indicator observation for one institution and month.
type Record struct {
	Date        civil.Date
	Tier        string
	Institution string
	Code        string
	Label       string
	Category    string
	Value       float64
}

// Extractor melts indicator cache blocks into records, canonicalizing names
// and filtering totals and non-retail entities.
type Extractor struct {
	canon    *entity.Canonicalizer
	log      zerolog.Logger
	Ignored  []string
	Taxonomy map[string]catalog.Indicator
	Diag     source.Diagnostics
}

func New(canon *entity.Canonicalizer, log zerolog.Logger) *Extractor {
	return &Extractor{
		canon:    canon,
		log:      log,
		Ignored:  catalog.IgnoredEntities,
		Taxonomy: catalog.IndicatorTaxonomy,
	}
}

// Cache field names shared by every indicator block generation. The
// indicator block dates its rows with FEC_CORTE; older workbooks carry
// FECHA instead.
const (
	fieldInstitution = "NOM_RAZON_SOCIAL"
	fieldTier        = "SEGMENTO"
	fieldDate        = "FEC_CORTE"
	fieldDateLegacy  = "FECHA"
)

// Extract melts one decoded cache block: every taxonomy field of every row
// becomes one record. Fields outside the taxonomy are skipped, as are rows
// for system totals and ignored entities. defaultTier applies when the block
// carries no tier field.
func (e *Extractor) Extract(table *source.CacheTable, defaultDate civil.Date, defaultTier string) []Record {
	var out []Record
	for _, row := range table.Rows {
		rawName := cacheString(row[fieldInstitution])
		if rawName == "" || catalog.IsSystemTotal(rawName) {
			e.Diag.SystemTotalRows++
			continue
		}
		if catalog.IsIgnoredEntity(rawName, e.Ignored) {
			e.Diag.IgnoredEntities++
			continue
		}

		tier := cacheString(row[fieldTier])
		if tier == "" {
			tier = defaultTier
		}
		date := defaultDate
		raw := cacheString(row[fieldDate])
		if raw == "" {
			raw = cacheString(row[fieldDateLegacy])
		}
		if raw != "" {
			if d, ok := cacheDate(raw); ok {
				date = d
			}
		}
		if !date.IsValid() {
			e.Diag.DroppedRows++
			continue
		}

		name := e.canon.CanonicalForTier(rawName, tier)
		for _, field := range table.Fields {
			ind, ok := e.Taxonomy[field]
			if !ok {
				continue
			}
			value, ok := cacheNumber(row[field])
			if !ok {
				e.Diag.DroppedRows++
				continue
			}
			out = append(out, Record{
				Date:        date,
				Tier:        tier,
				Institution: name,
				Code:        ind.Code,
				Label:       ind.Label,
				Category:    ind.Category,
				Value:       value,
			})
		}
	}
	return out
}

// Dedupe keeps the last record per (date, institution, indicator), so a
// republished month overrides the earlier extract.
func Dedupe(recs []Record) []Record {
	type key struct {
		date        civil.Date
		institution string
		code        string
	}
	index := make(map[key]int, len(recs))
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		k := key{r.Date, r.Institution, r.Code}
		if i, ok := index[k]; ok {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// UnifyTiers rewrites each institution's tier to its latest reported one,
// mirroring the balance history.
func UnifyTiers(recs []Record) {
	type latest struct {
		date civil.Date
		tier string
	}
	current := make(map[string]latest)
	for _, r := range recs {
		l, ok := current[r.Institution]
		if !ok || r.Date.After(l.date) {
			current[r.Institution] = latest{date: r.Date, tier: r.Tier}
		}
	}
	for i := range recs {
		recs[i].Tier = current[recs[i].Institution].tier
	}
}

// Sort orders records by date, tier, institution and indicator code.
func Sort(recs []Record) {
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

func cacheString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func cacheNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func cacheDate(raw string) (civil.Date, bool) {
	layouts := []string{"2006-01-02", "2006-01-02T15:04:05", "2006-01-02 15:04:05", "02/01/2006"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}
