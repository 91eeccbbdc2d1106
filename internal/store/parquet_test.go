package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/jp1309/cooperativas/internal/income"
	"github.com/jp1309/cooperativas/internal/indicators"
	"github.com/jp1309/cooperativas/internal/source"
)

func TestBalanceRoundTrip(t *testing.T) {
	s := New(t.TempDir(), zerolog.Nop())

	rows := []source.Row{
		{
			Date:        civil.Date{Year: 2019, Month: 3, Day: 31},
			Tier:        "SEGMENTO 1",
			RUC:         "1790012345001",
			Institution: "JARDIN AZUAYO LTDA",
			Code:        "14",
			Label:       "CARTERA DE CREDITOS",
			Amount:      750.25,
		},
		{
			Date:        civil.Date{Year: 2019, Month: 4, Day: 30},
			Tier:        "SEGMENTO 1",
			Institution: "JARDIN AZUAYO LTDA",
			Code:        "14",
			Amount:      760.00,
		},
	}
	if err := s.WriteBalance(rows); err != nil {
		t.Fatalf("WriteBalance: %v", err)
	}

	got, err := s.ReadBalance()
	if err != nil {
		t.Fatalf("ReadBalance: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0] != rows[0] || got[1] != rows[1] {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, rows)
	}
}

func TestReadBalanceMissingFile(t *testing.T) {
	s := New(t.TempDir(), zerolog.Nop())
	got, err := s.ReadBalance()
	if err != nil {
		t.Fatalf("ReadBalance on empty dir: %v", err)
	}
	if got != nil {
		t.Errorf("got %d rows, want none", len(got))
	}
}

func TestIncomeOptionalTrailing12(t *testing.T) {
	s := New(t.TempDir(), zerolog.Nop())

	recs := []income.Record{
		{
			Date:        civil.Date{Year: 2020, Month: 1, Day: 31},
			Tier:        "SEGMENTO 1",
			Institution: "A",
			Code:        "41",
			Accumulated: 100,
			Monthly:     100,
		},
		{
			Date:          civil.Date{Year: 2020, Month: 12, Day: 31},
			Tier:          "SEGMENTO 1",
			Institution:   "A",
			Code:          "41",
			Accumulated:   1200,
			Monthly:       100,
			Trailing12:    1200,
			HasTrailing12: true,
		},
	}
	if err := s.WriteIncome(recs); err != nil {
		t.Fatalf("WriteIncome: %v", err)
	}
	got, err := s.ReadIncome()
	if err != nil {
		t.Fatalf("ReadIncome: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].HasTrailing12 {
		t.Error("first record should have no trailing-12")
	}
	if !got[1].HasTrailing12 || got[1].Trailing12 != 1200 {
		t.Errorf("second record = %+v", got[1])
	}
}

func TestIndicatorsRoundTrip(t *testing.T) {
	s := New(t.TempDir(), zerolog.Nop())

	recs := []indicators.Record{
		{
			Date:        civil.Date{Year: 2023, Month: 5, Day: 31},
			Tier:        "SEGMENTO 1",
			Institution: "JARDIN AZUAYO LTDA",
			Code:        "ROE",
			Label:       "ROE",
			Category:    "E - Earnings",
			Value:       0.12,
		},
	}
	if err := s.WriteIndicators(recs); err != nil {
		t.Fatalf("WriteIndicators: %v", err)
	}
	got, err := s.ReadIndicators()
	if err != nil {
		t.Fatalf("ReadIndicators: %v", err)
	}
	if len(got) != 1 || got[0] != recs[0] {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, zerolog.Nop())
	if err := s.WriteBalance([]source.Row{{
		Date: civil.Date{Year: 2019, Month: 3, Day: 31}, Institution: "A", Code: "1",
	}}); err != nil {
		t.Fatalf("WriteBalance: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	s := New(t.TempDir(), zerolog.Nop())

	none, err := s.ReadMetadata()
	if err != nil || none != nil {
		t.Fatalf("ReadMetadata on empty dir = %+v, %v", none, err)
	}

	m := &Metadata{
		RunID:       "6f1c0b52-0000-0000-0000-000000000000",
		ProcessedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Containers:  []string{"boletines_2019.zip"},
		Tables: map[string]TableMeta{
			BalanceFile: {Rows: 2, MinDate: "2019-03-31", MaxDate: "2019-04-30"},
		},
		Diagnostics: map[string]int{"zero_coercions": 1},
	}
	if err := s.WriteMetadata(m); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}
	got, err := s.ReadMetadata()
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if got.RunID != m.RunID || got.Tables[BalanceFile].Rows != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Diagnostics["zero_coercions"] != 1 {
		t.Errorf("diagnostics lost: %+v", got.Diagnostics)
	}
}
