package source

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/jp1309/cooperativas/internal/catalog"
)

// Canonical field names for the delimited layout. A schema break at
// TabYearBreak renamed several columns and switched the delimiter; both
// generations map onto the same canonical set.
var delimitedHeaderNames = map[string]string{
	"FECHA DE CORTE":     "fecha",
	"FECHA_DE_CORTE":     "fecha",
	"FECHA":              "fecha",
	"SEGMENTO":           "segmento",
	"RUC":                "ruc",
	"RAZON SOCIAL":       "entidad",
	"RAZON_SOCIAL":       "entidad",
	"CUENTA":             "codigo",
	"DESCRIPCION CUENTA": "cuenta",
	"DESCRIPCION_CUENTA": "cuenta",
	"SALDO (USD)":        "valor",
	"SALDO_USD":          "valor",
	"SALDO":              "valor",
}

func (r *Reader) readDelimited(ctr *Container) ([]Row, error) {
	zr, err := zip.OpenReader(ctr.Path)
	if err != nil {
		return nil, &FormatError{Container: ctr.Name, Reason: fmt.Sprintf("open archive: %v", err)}
	}
	defer zr.Close()

	var member *zip.File
	for _, f := range zr.File {
		ext := strings.ToLower(path.Ext(f.Name))
		if ext == ".csv" || ext == ".txt" {
			member = f
			break
		}
	}
	if member == nil {
		return nil, &FormatError{Container: ctr.Name, Reason: "no delimited data file in archive"}
	}

	rc, err := member.Open()
	if err != nil {
		return nil, &FormatError{Container: ctr.Name, Reason: fmt.Sprintf("open %s: %v", member.Name, err)}
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	cr.Comma = ';'
	if ctr.Year >= r.TabYearBreak {
		cr.Comma = '\t'
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, &SchemaError{Container: ctr.Name, Reason: fmt.Sprintf("read header: %v", err)}
	}
	cols, err := mapDelimitedHeader(header)
	if err != nil {
		return nil, &SchemaError{Container: ctr.Name, Reason: err.Error()}
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.Diag.DroppedRows++
			continue
		}

		get := func(idx int) string {
			if idx < 0 || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}

		rawName := get(cols["entidad"])
		if rawName == "" || catalog.IsSystemTotal(rawName) {
			r.Diag.SystemTotalRows++
			continue
		}
		if catalog.IsIgnoredEntity(rawName, r.Ignored) {
			r.Diag.IgnoredEntities++
			continue
		}

		date, ok := parseDate(get(cols["fecha"]))
		if !ok {
			r.Diag.DroppedRows++
			continue
		}
		code := get(cols["codigo"])
		if code == "" {
			r.Diag.DroppedRows++
			continue
		}
		tier := get(cols["segmento"])
		amount, ok := parseAmount(get(cols["valor"]))
		if !ok {
			r.Diag.ZeroCoercions++
		}

		rows = append(rows, Row{
			Date:        date,
			Tier:        tier,
			RUC:         get(cols["ruc"]),
			Institution: r.canon.CanonicalForTier(rawName, tier),
			Code:        code,
			Label:       get(cols["cuenta"]),
			Amount:      amount,
		})
	}

	return rows, nil
}

// mapDelimitedHeader resolves canonical field positions from a raw header
// row, tolerating a BOM and stray whitespace.
func mapDelimitedHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, h := range header {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		h = strings.TrimSpace(h)
		if canonical, ok := delimitedHeaderNames[strings.ToUpper(h)]; ok {
			if _, seen := cols[canonical]; !seen {
				cols[canonical] = i
			}
		}
	}
	for _, required := range []string{"fecha", "segmento", "entidad", "codigo", "cuenta", "valor"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q in header", required)
		}
	}
	if _, ok := cols["ruc"]; !ok {
		cols["ruc"] = -1
	}
	return cols, nil
}
