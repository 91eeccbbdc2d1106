package income

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/jp1309/cooperativas/internal/source"
)

func date(y int, m time.Month) civil.Date {
	end := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
	return civil.DateOf(end)
}

func obs(d civil.Date, inst, code string, acc float64) source.Row {
	return source.Row{Date: d, Tier: "SEGMENTO 1", Institution: inst, Code: code, Amount: acc}
}

func TestFromRowsFiltersChapters(t *testing.T) {
	d := date(2020, 1)
	rows := []source.Row{
		obs(d, "A", "1", 500),   // balance chapter, dropped
		obs(d, "A", "41", 10),
		obs(d, "A", "41", 5),    // duplicate, aggregated
		obs(d, "A", "51", 20),
		obs(d, "A", "21", 300),  // balance chapter, dropped
	}
	got := FromRows(rows, []string{"4", "5"})
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].Code != "41" || got[0].Amount != 15 {
		t.Errorf("first = %+v, want code 41 amount 15", got[0])
	}
	if got[1].Code != "51" || got[1].Amount != 20 {
		t.Errorf("second = %+v", got[1])
	}
	// Missing labels fill from the chart of accounts.
	if got[0].Label != "INTERESES CAUSADOS" {
		t.Errorf("label = %q, want INTERESES CAUSADOS", got[0].Label)
	}
}

func TestDeriveMonthlyFlows(t *testing.T) {
	rows := []source.Row{
		obs(date(2020, 1), "A", "41", 100),
		obs(date(2020, 2), "A", "41", 250),
		obs(date(2020, 3), "A", "41", 400),
	}
	recs, stats := Derive(rows)
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	want := []float64{100, 150, 150}
	for i, w := range want {
		if recs[i].Monthly != w {
			t.Errorf("month %d flow = %v, want %v", i+1, recs[i].Monthly, w)
		}
	}
	if stats.Restarts != 0 {
		t.Errorf("restarts = %d, want 0", stats.Restarts)
	}
}

func TestDeriveJanuaryResets(t *testing.T) {
	rows := []source.Row{
		obs(date(2020, 11), "A", "41", 1100),
		obs(date(2020, 12), "A", "41", 1200),
		obs(date(2021, 1), "A", "41", 90),
	}
	recs, _ := Derive(rows)
	if recs[1].Monthly != 100 {
		t.Errorf("december flow = %v, want 100", recs[1].Monthly)
	}
	// January restarts from the accumulated value, never a cross-year diff.
	if recs[2].Monthly != 90 {
		t.Errorf("january flow = %v, want 90", recs[2].Monthly)
	}
}

func TestDeriveGapRestarts(t *testing.T) {
	rows := []source.Row{
		obs(date(2020, 1), "A", "41", 100),
		// February missing.
		obs(date(2020, 3), "A", "41", 400),
	}
	recs, stats := Derive(rows)
	if recs[1].Monthly != 400 {
		t.Errorf("post-gap flow = %v, want the accumulated 400", recs[1].Monthly)
	}
	if stats.Restarts != 1 {
		t.Errorf("restarts = %d, want 1", stats.Restarts)
	}
}

func TestDeriveFirstObservationMidYear(t *testing.T) {
	rows := []source.Row{
		obs(date(2020, 4), "A", "41", 70),
	}
	recs, stats := Derive(rows)
	if recs[0].Monthly != 70 {
		t.Errorf("flow = %v, want 70", recs[0].Monthly)
	}
	if stats.Restarts != 1 {
		t.Errorf("restarts = %d, want 1", stats.Restarts)
	}
}

func TestDeriveTrailing12(t *testing.T) {
	var rows []source.Row
	acc := 0.0
	for m := time.January; m <= time.December; m++ {
		acc += 10
		rows = append(rows, obs(date(2020, m), "A", "41", acc))
	}
	rows = append(rows, obs(date(2021, 1), "A", "41", 25))

	recs, _ := Derive(rows)
	if len(recs) != 13 {
		t.Fatalf("got %d records, want 13", len(recs))
	}
	for i := 0; i < 11; i++ {
		if recs[i].HasTrailing12 {
			t.Errorf("record %d has trailing-12 before twelve observations", i)
		}
	}
	// Twelve monthly flows of 10 each.
	if !recs[11].HasTrailing12 || recs[11].Trailing12 != 120 {
		t.Errorf("december trailing-12 = %v, %v, want 120", recs[11].Trailing12, recs[11].HasTrailing12)
	}
	// Window slides: drops the old January flow (10), adds the new one (25).
	if !recs[12].HasTrailing12 || recs[12].Trailing12 != 135 {
		t.Errorf("january trailing-12 = %v, want 135", recs[12].Trailing12)
	}
}

func TestDeriveSeriesAreIndependent(t *testing.T) {
	rows := []source.Row{
		obs(date(2020, 1), "A", "41", 100),
		obs(date(2020, 1), "B", "41", 7),
		obs(date(2020, 2), "A", "41", 250),
	}
	recs, _ := Derive(rows)
	for _, r := range recs {
		if r.Institution == "B" && r.Monthly != 7 {
			t.Errorf("B flow = %v, want 7", r.Monthly)
		}
		if r.Institution == "A" && r.Date.Month == 2 && r.Monthly != 150 {
			t.Errorf("A february flow = %v, want 150", r.Monthly)
		}
	}
}
