package source

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/jp1309/cooperativas/internal/catalog"
)

// statementSheetMarker identifies the worksheet carrying financial-statement
// content inside a workbook.
const statementSheetMarker = "ESTADO FINANCIERO"

// headerCellMarker is the literal that starts the account-code column and
// anchors the data header row.
const headerCellMarker = "CUENTA"

// metadataColumns is how many leading columns carry account metadata in the
// wide layout; every column to the right is one reporting institution.
const metadataColumns = 4

// Workbook is one spreadsheet member of a workbook container: its file name,
// the classification tier it implies, and its raw bytes.
type Workbook struct {
	Name string
	Tier string
	Data []byte
}

// Workbooks lists the spreadsheet members of a workbook container, skipping
// the non-retail ignore list.
func (r *Reader) Workbooks(ctr *Container) ([]Workbook, error) {
	zr, err := zip.OpenReader(ctr.Path)
	if err != nil {
		return nil, &FormatError{Container: ctr.Name, Reason: fmt.Sprintf("open archive: %v", err)}
	}
	defer zr.Close()

	var books []Workbook
	for _, f := range zr.File {
		ext := strings.ToLower(path.Ext(f.Name))
		if ext != ".xlsm" && ext != ".xlsx" {
			continue
		}
		base := path.Base(f.Name)
		if catalog.IsIgnoredEntity(base, r.Ignored) {
			r.Diag.IgnoredEntities++
			continue
		}
		data, err := readZipMember(f)
		if err != nil {
			r.Diag.SkippedWorkbooks++
			r.log.Warn().Str("container", ctr.Name).Str("workbook", base).Err(err).Msg("unreadable workbook")
			continue
		}
		books = append(books, Workbook{Name: base, Tier: r.tierFor(base), Data: data})
	}
	if len(books) == 0 {
		return nil, &FormatError{Container: ctr.Name, Reason: "no workbook members in archive"}
	}
	return books, nil
}

func (r *Reader) tierFor(name string) string {
	if r.TierFromName != nil {
		return r.TierFromName(name)
	}
	return catalog.TierFromFilename(name)
}

// readWorkbook extracts balance rows from every workbook in the container by
// reshaping the wide statement sheet (one column per institution) into long
// form. Workbooks that fail are skipped with a diagnostic; the container
// errors only when nothing at all could be read.
func (r *Reader) readWorkbook(ctr *Container) ([]Row, error) {
	books, err := r.Workbooks(ctr)
	if err != nil {
		return nil, err
	}

	var rows []Row
	var lastErr error
	parsed := 0
	for _, wb := range books {
		wbRows, err := r.readStatementSheet(ctr, wb)
		if err != nil {
			r.Diag.SkippedWorkbooks++
			lastErr = err
			r.log.Warn().Str("container", ctr.Name).Str("workbook", wb.Name).Err(err).Msg("workbook skipped")
			continue
		}
		rows = append(rows, wbRows...)
		parsed++
	}
	if parsed == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, &SchemaError{Container: ctr.Name, Reason: "no workbook yielded statement rows"}
	}
	return rows, nil
}

// readStatementSheet locates the statement sheet, recovers the reporting
// date, finds the header row within the bounded scan and reshapes the wide
// table into rows.
func (r *Reader) readStatementSheet(ctr *Container, wb Workbook) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(wb.Data))
	if err != nil {
		return nil, &FormatError{Container: ctr.Name, Reason: fmt.Sprintf("open workbook %s: %v", wb.Name, err)}
	}
	defer f.Close()

	sheet := ""
	for _, name := range f.GetSheetList() {
		if strings.Contains(strings.ToUpper(name), statementSheetMarker) {
			sheet = name
			break
		}
	}
	if sheet == "" {
		return nil, &SchemaError{Container: ctr.Name, Reason: fmt.Sprintf("%s: no statement sheet", wb.Name)}
	}

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, &FormatError{Container: ctr.Name, Reason: fmt.Sprintf("%s: read sheet: %v", wb.Name, err)}
	}

	headerIdx := -1
	scan := len(grid)
	if scan > r.MaxHeaderScan {
		scan = r.MaxHeaderScan
	}
	var date civil.Date
	dateFound := false
	for i := 0; i < scan; i++ {
		row := grid[i]
		if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), headerCellMarker) {
			headerIdx = i
			break
		}
		if dateFound {
			continue
		}
		// Rows above the header carry the reporting date in a date-typed
		// cell; the first parseable one wins.
		for _, cell := range row {
			if d, ok := parseDate(cell); ok {
				date = d
				dateFound = true
				break
			}
		}
	}
	if headerIdx < 0 {
		return nil, &SchemaError{Container: ctr.Name, Reason: fmt.Sprintf("%s: header marker %q not found in first %d rows", wb.Name, headerCellMarker, scan)}
	}
	if !dateFound {
		d, ok := dateFromFilename(wb.Name)
		if !ok {
			return nil, &SchemaError{Container: ctr.Name, Reason: fmt.Sprintf("%s: no reporting date above header or in file name", wb.Name)}
		}
		date = d
	}

	header := grid[headerIdx]
	type instCol struct {
		idx  int
		name string
	}
	var institutions []instCol
	for i := metadataColumns; i < len(header); i++ {
		name := strings.TrimSpace(header[i])
		if name == "" {
			continue
		}
		if catalog.IsSystemTotal(name) {
			r.Diag.SystemTotalRows++
			continue
		}
		if catalog.IsIgnoredEntity(name, r.Ignored) {
			r.Diag.IgnoredEntities++
			continue
		}
		institutions = append(institutions, instCol{idx: i, name: r.canon.CanonicalForTier(name, wb.Tier)})
	}

	var rows []Row
	for _, line := range grid[headerIdx+1:] {
		if len(line) == 0 {
			continue
		}
		code := strings.TrimSpace(line[0])
		if code == "" {
			r.Diag.DroppedRows++
			continue
		}
		label := ""
		if len(line) > 1 {
			label = strings.TrimSpace(line[1])
		}
		for _, inst := range institutions {
			raw := ""
			if inst.idx < len(line) {
				raw = line[inst.idx]
			}
			amount, ok := parseAmount(raw)
			if !ok && strings.TrimSpace(raw) != "" {
				r.Diag.ZeroCoercions++
			}
			rows = append(rows, Row{
				Date:        date,
				Tier:        wb.Tier,
				Institution: inst.name,
				Code:        code,
				Label:       label,
				Amount:      amount,
			})
		}
	}
	return rows, nil
}

var filenameDatePattern = regexp.MustCompile(`(\d{4})[-_ ]?(\d{2})`)

// dateFromFilename recovers the reporting month-end from a workbook file
// name carrying an embedded YYYYMM or YYYY-MM.
func dateFromFilename(name string) (civil.Date, bool) {
	m := filenameDatePattern.FindStringSubmatch(name)
	if m == nil {
		return civil.Date{}, false
	}
	var year, month int
	fmt.Sscanf(m[1], "%d", &year)
	fmt.Sscanf(m[2], "%d", &month)
	if month < 1 || month > 12 {
		return civil.Date{}, false
	}
	// Day 0 of the following month is the last day of this one.
	end := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return civil.DateOf(end), true
}

// StatementRows decodes the statement data block of one workbook's pivot
// cache into uniform rows, used for income-statement extraction in the
// periods where no delimited extract exists.
func (r *Reader) StatementRows(ctr *Container, wb Workbook) ([]Row, error) {
	zr, err := OpenWorkbookArchive(wb.Data)
	if err != nil {
		return nil, &FormatError{Container: ctr.Name, Reason: fmt.Sprintf("%s: open workbook archive: %v", wb.Name, err)}
	}
	defFile, recFile, err := FindLargestCache(zr)
	if err != nil {
		return nil, err
	}
	table, err := ParseCacheTable(defFile, recFile)
	if err != nil {
		return nil, &SchemaError{Container: ctr.Name, Reason: fmt.Sprintf("%s: %v", wb.Name, err)}
	}

	var rows []Row
	for _, rec := range table.Rows {
		rawName := stringValue(rec["NOM_RAZON_SOCIAL"])
		if rawName == "" || catalog.IsSystemTotal(rawName) {
			r.Diag.SystemTotalRows++
			continue
		}
		if catalog.IsIgnoredEntity(rawName, r.Ignored) {
			r.Diag.IgnoredEntities++
			continue
		}
		date, ok := parseDate(stringValue(rec["FECHA"]))
		if !ok {
			r.Diag.DroppedRows++
			continue
		}
		code := strings.TrimSpace(stringValue(rec["CODIGO_CONTABLE"]))
		if code == "" {
			r.Diag.DroppedRows++
			continue
		}
		tier := stringValue(rec["SEGMENTO"])
		if tier == "" {
			tier = wb.Tier
		}
		amount, ok := numberValue(rec["VALOR"])
		if !ok {
			r.Diag.ZeroCoercions++
		}
		rows = append(rows, Row{
			Date:        date,
			Tier:        tier,
			RUC:         stringValue(rec["NUM_RUC"]),
			Institution: r.canon.CanonicalForTier(rawName, tier),
			Code:        code,
			Label:       stringValue(rec["NOMBRE_CUENTA"]),
			Amount:      amount,
		})
	}
	return rows, nil
}

// stringValue renders a cache value as a string; numbers keep their shortest
// decimal form so numeric account codes survive the round trip.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", val), "0"), ".")
	default:
		return ""
	}
}

func numberValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		return parseAmount(val)
	default:
		return 0, false
	}
}
