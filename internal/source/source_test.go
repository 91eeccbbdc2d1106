package source

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/jp1309/cooperativas/internal/catalog"
	"github.com/jp1309/cooperativas/internal/entity"
)

// writeZipFile builds a zip archive under dir with the given members and
// returns its path.
func writeZipFile(t *testing.T, dir, name string, members map[string][]byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	zw := zip.NewWriter(f)
	for memberName, data := range members {
		w, err := zw.Create(memberName)
		if err != nil {
			t.Fatalf("create member %s: %v", memberName, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write member %s: %v", memberName, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return p
}

func newTestReader() *Reader {
	canon := entity.New(entity.Tables{
		LegalFormPrefixes: catalog.LegalFormPrefixes,
		Corrections:       catalog.NameCorrections,
		ShortNames:        catalog.MutualistNames,
		TierSignal:        catalog.MutualistTierSignal,
	})
	r := NewReader(canon, zerolog.Nop())
	r.Ignored = catalog.IgnoredEntities
	return r
}

func TestYearFromName(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"boletines_2019.zip", 2019},
		{"BOLETIN 2023 FINANCIERO.zip", 2023},
		{"sin_anio.zip", 0},
	}
	for _, tt := range tests {
		if got := YearFromName(tt.name); got != tt.want {
			t.Errorf("YearFromName(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestDetectContainer(t *testing.T) {
	dir := t.TempDir()

	csvZip := writeZipFile(t, dir, "boletines_2019.zip", map[string][]byte{
		"boletin.csv": []byte("FECHA;SEGMENTO\n"),
	})
	ctr, err := DetectContainer(csvZip)
	if err != nil {
		t.Fatalf("DetectContainer(csv): %v", err)
	}
	if ctr.Format != FormatDelimited {
		t.Errorf("format = %v, want %v", ctr.Format, FormatDelimited)
	}
	if ctr.Year != 2019 {
		t.Errorf("year = %d, want 2019", ctr.Year)
	}

	// A workbook member wins over a delimited one in the same archive.
	mixedZip := writeZipFile(t, dir, "indicadores_2023.zip", map[string][]byte{
		"readme.txt":  []byte("x"),
		"SEGMENTO 1 2023.xlsm": []byte("not really a workbook"),
	})
	ctr, err = DetectContainer(mixedZip)
	if err != nil {
		t.Fatalf("DetectContainer(mixed): %v", err)
	}
	if ctr.Format != FormatWorkbook {
		t.Errorf("format = %v, want %v", ctr.Format, FormatWorkbook)
	}

	emptyZip := writeZipFile(t, dir, "vacio_2020.zip", map[string][]byte{
		"notes.md": []byte("nothing here"),
	})
	if _, err := DetectContainer(emptyZip); err == nil {
		t.Error("DetectContainer(empty) = nil error, want FormatError")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want civil.Date
		ok   bool
	}{
		{"2019-03-31", civil.Date{Year: 2019, Month: 3, Day: 31}, true},
		{"31/03/2019", civil.Date{Year: 2019, Month: 3, Day: 31}, true},
		{"2022-01-31 00:00:00", civil.Date{Year: 2022, Month: 1, Day: 31}, true},
		{" 2019/03/31 ", civil.Date{Year: 2019, Month: 3, Day: 31}, true},
		{"", civil.Date{}, false},
		{"marzo 2019", civil.Date{}, false},
	}
	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseDate(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1000.50", 1000.50, true},
		{"1000,50", 1000.50, true},
		{"-12,75", -12.75, true},
		{"0", 0, true},
		{"", 0, false},
		{"n/d", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseAmount(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
