// Package source extracts raw rows from the regulator's source containers.
// A container is a ZIP archive for one reporting period holding either
// delimited text (older periods) or spreadsheet workbooks (newer periods);
// both paths produce the same uniform row set, already entity-canonicalized
// and stripped of non-retail entities and system-total rows.
package source

import (
	"archive/zip"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/jp1309/cooperativas/internal/entity"
)

// Format tags the container layout, resolved once per container and then
// dispatched explicitly. A future third layout is a new tag plus one case.
type Format int

const (
	FormatUnknown Format = iota
	// FormatDelimited holds one delimited text file (CSV/TXT).
	FormatDelimited
	// FormatWorkbook holds one spreadsheet workbook per classification tier.
	FormatWorkbook
)

func (f Format) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatWorkbook:
		return "workbook"
	default:
		return "unknown"
	}
}

// Row is one (institution, reporting-date, account) observation in the
// uniform intermediate row set.
type Row struct {
	Date        civil.Date
	Tier        string
	RUC         string
	Institution string
	Code        string
	Label       string
	Amount      float64
}

// Container is one source archive, its declared year and detected format.
type Container struct {
	Path   string
	Name   string
	Year   int
	Format Format
}

var yearPattern = regexp.MustCompile(`(\d{4})`)

// YearFromName extracts the 4-digit year embedded in a container file name,
// or 0 if none is present. Container naming encodes year truthfully; the
// consolidator relies on it to skip stale archives.
func YearFromName(name string) int {
	m := yearPattern.FindString(name)
	if m == "" {
		return 0
	}
	year, _ := strconv.Atoi(m)
	return year
}

// DetectContainer opens an archive, identifies its layout and declared year.
// An archive with no data-bearing member yields a FormatError.
func DetectContainer(archivePath string) (*Container, error) {
	name := path.Base(archivePath)
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &FormatError{Container: name, Reason: fmt.Sprintf("open archive: %v", err)}
	}
	defer zr.Close()

	format := FormatUnknown
	for _, f := range zr.File {
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".xlsm", ".xlsx":
			format = FormatWorkbook
		case ".csv", ".txt":
			if format == FormatUnknown {
				format = FormatDelimited
			}
		}
		if format == FormatWorkbook {
			break
		}
	}
	if format == FormatUnknown {
		return nil, &FormatError{Container: name, Reason: "no data-bearing file in archive"}
	}

	return &Container{
		Path:   archivePath,
		Name:   name,
		Year:   YearFromName(name),
		Format: format,
	}, nil
}

// Reader turns containers into uniform row sets. All lookup behavior is
// injected so tests can substitute tables.
type Reader struct {
	canon *entity.Canonicalizer
	log   zerolog.Logger

	// Ignored lists non-retail entities excluded from every extract.
	Ignored []string
	// TabYearBreak is the first reporting year whose delimited files switch
	// from semicolon to tab delimiting with renamed columns.
	TabYearBreak int
	// MaxHeaderScan bounds the search for the header row in a worksheet; the
	// scan always terminates.
	MaxHeaderScan int
	// TierFromName derives the classification tier implied by a workbook
	// file name when the extract has no tier field.
	TierFromName func(string) string

	Diag Diagnostics
}

// NewReader builds a Reader with the given canonicalizer and defaults
// matching the published extracts.
func NewReader(canon *entity.Canonicalizer, log zerolog.Logger) *Reader {
	return &Reader{
		canon:         canon,
		log:           log,
		TabYearBreak:  2022,
		MaxHeaderScan: 40,
	}
}

// Read extracts the uniform row set from one container, dispatching on its
// detected format.
func (r *Reader) Read(ctr *Container) ([]Row, error) {
	switch ctr.Format {
	case FormatDelimited:
		return r.readDelimited(ctr)
	case FormatWorkbook:
		return r.readWorkbook(ctr)
	default:
		return nil, &FormatError{Container: ctr.Name, Reason: "unknown container format"}
	}
}

// parseDate accepts the date spellings observed across the yearly extracts.
func parseDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"02/01/2006",
		"2/1/2006",
		"02-01-2006",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// parseAmount coerces a reported amount to a number. Decimal-comma formatting
// is normalized first; anything still unparseable degrades to zero, reported
// through the ZeroCoercions diagnostic by callers.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
