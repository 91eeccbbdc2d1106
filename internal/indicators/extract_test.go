package indicators

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/jp1309/cooperativas/internal/catalog"
	"github.com/jp1309/cooperativas/internal/entity"
	"github.com/jp1309/cooperativas/internal/source"
)

func newTestExtractor() *Extractor {
	canon := entity.New(entity.Tables{
		LegalFormPrefixes: catalog.LegalFormPrefixes,
		Corrections:       catalog.NameCorrections,
		ShortNames:        catalog.MutualistNames,
		TierSignal:        catalog.MutualistTierSignal,
	})
	return New(canon, zerolog.Nop())
}

func testTable() *source.CacheTable {
	return &source.CacheTable{
		Fields: []string{"NOM_RAZON_SOCIAL", "SEGMENTO", "FEC_CORTE", "I28_ROE", "I29_ROA", "CAMPO_DESCONOCIDO"},
		Rows: []map[string]any{
			{
				"NOM_RAZON_SOCIAL":  "COOPERATIVA DE AHORRO Y CREDITO JARDIN AZUAYO LTDA",
				"SEGMENTO":          "SEGMENTO 1",
				"FEC_CORTE":         "2023-05-31T00:00:00",
				"I28_ROE":           0.12,
				"I29_ROA":           0.011,
				"CAMPO_DESCONOCIDO": 42.0,
			},
			{
				"NOM_RAZON_SOCIAL": "VT_TOTAL",
				"SEGMENTO":         "SEGMENTO 1",
				"FEC_CORTE":        "2023-05-31T00:00:00",
				"I28_ROE":          0.10,
			},
			{
				"NOM_RAZON_SOCIAL": "AMBATO",
				"SEGMENTO":         "SEGMENTO 1 MUTUALISTA",
				"FEC_CORTE":        "2023-05-31T00:00:00",
				"I28_ROE":          0.07,
				"I29_ROA":          nil, // missing in cache
			},
		},
	}
}

func TestExtract(t *testing.T) {
	e := newTestExtractor()
	recs := e.Extract(testTable(), civil.Date{}, catalog.TierSegment1)

	// Row 1 yields ROE+ROA, the total row is dropped, the mutualist row
	// yields ROE only; the field outside the taxonomy never appears.
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if e.Diag.SystemTotalRows != 1 {
		t.Errorf("system total rows = %d, want 1", e.Diag.SystemTotalRows)
	}
	// The nil ROA value drops as unusable.
	if e.Diag.DroppedRows != 1 {
		t.Errorf("dropped values = %d, want 1", e.Diag.DroppedRows)
	}

	first := recs[0]
	if first.Institution != "JARDIN AZUAYO LTDA" {
		t.Errorf("institution = %q", first.Institution)
	}
	if first.Code != "ROE" || first.Category != catalog.CategoryEarnings {
		t.Errorf("taxonomy mapping = %q / %q", first.Code, first.Category)
	}
	if first.Date != (civil.Date{Year: 2023, Month: 5, Day: 31}) {
		t.Errorf("date = %v", first.Date)
	}
	if first.Value != 0.12 {
		t.Errorf("value = %v", first.Value)
	}

	// The mutualist short name resolves because the tier carries the signal.
	last := recs[2]
	if last.Institution != "Mutualista Ambato" {
		t.Errorf("mutualist institution = %q", last.Institution)
	}
}

func TestExtractDefaultTierAndDate(t *testing.T) {
	e := newTestExtractor()
	table := &source.CacheTable{
		Fields: []string{"NOM_RAZON_SOCIAL", "I28_ROE"},
		Rows: []map[string]any{
			{"NOM_RAZON_SOCIAL": "OTRA LTDA", "I28_ROE": 0.05},
		},
	}
	d := civil.Date{Year: 2023, Month: 6, Day: 30}
	recs := e.Extract(table, d, catalog.TierSegment2)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Tier != catalog.TierSegment2 || recs[0].Date != d {
		t.Errorf("defaults not applied: %+v", recs[0])
	}
}

func TestExtractLegacyDateField(t *testing.T) {
	e := newTestExtractor()
	table := &source.CacheTable{
		Fields: []string{"NOM_RAZON_SOCIAL", "FECHA", "I28_ROE"},
		Rows: []map[string]any{
			{"NOM_RAZON_SOCIAL": "OTRA LTDA", "FECHA": "2021-08-31T00:00:00", "I28_ROE": 0.05},
		},
	}
	recs := e.Extract(table, civil.Date{}, catalog.TierSegment2)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if want := (civil.Date{Year: 2021, Month: 8, Day: 31}); recs[0].Date != want {
		t.Errorf("date = %v, want %v", recs[0].Date, want)
	}
}

func TestDedupeLastWins(t *testing.T) {
	d := civil.Date{Year: 2023, Month: 5, Day: 31}
	recs := []Record{
		{Date: d, Institution: "A", Code: "ROE", Value: 0.10},
		{Date: d, Institution: "A", Code: "ROA", Value: 0.01},
		{Date: d, Institution: "A", Code: "ROE", Value: 0.12},
	}
	got := Dedupe(recs)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Code != "ROE" || got[0].Value != 0.12 {
		t.Errorf("republished value should win: %+v", got[0])
	}
}

func TestUnifyTiers(t *testing.T) {
	recs := []Record{
		{Date: civil.Date{Year: 2023, Month: 4, Day: 30}, Institution: "A", Tier: "SEGMENTO 2", Code: "ROE"},
		{Date: civil.Date{Year: 2023, Month: 5, Day: 31}, Institution: "A", Tier: "SEGMENTO 1", Code: "ROE"},
	}
	UnifyTiers(recs)
	if recs[0].Tier != "SEGMENTO 1" {
		t.Errorf("tier = %q, want SEGMENTO 1", recs[0].Tier)
	}
}

func TestSort(t *testing.T) {
	d1 := civil.Date{Year: 2023, Month: 4, Day: 30}
	d2 := civil.Date{Year: 2023, Month: 5, Day: 31}
	recs := []Record{
		{Date: d2, Tier: "SEGMENTO 1", Institution: "B", Code: "ROE"},
		{Date: d1, Tier: "SEGMENTO 1", Institution: "B", Code: "ROE"},
		{Date: d1, Tier: "SEGMENTO 1", Institution: "A", Code: "ROE"},
		{Date: d1, Tier: "SEGMENTO 1", Institution: "A", Code: "ROA"},
	}
	Sort(recs)
	if recs[0].Institution != "A" || recs[0].Code != "ROA" {
		t.Errorf("first = %+v", recs[0])
	}
	if recs[3].Date != d2 {
		t.Errorf("last = %+v", recs[3])
	}
}
