package source

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// The regulator's workbooks embed their monthly data in cached pivot tables:
// xl/pivotCache/pivotCacheDefinitionN.xml holds per-field dictionaries
// (sharedItems) and pivotCacheRecordsN.xml holds dictionary-encoded rows.
// The block numbering moves between years, so the right block is found by
// content (marker field names) or by size (the statement block is the
// largest), never by position.

// CacheTable is one decoded pivot-cache data block: ordered field names and
// rows as field-name → value maps. Values are string, float64 or nil.
type CacheTable struct {
	Fields []string
	Rows   []map[string]any
}

// HasField reports whether the block defines the named field.
func (t *CacheTable) HasField(name string) bool {
	for _, f := range t.Fields {
		if f == name {
			return true
		}
	}
	return false
}

type cacheDefinitionXML struct {
	Fields []cacheFieldXML `xml:"cacheFields>cacheField"`
}

type cacheFieldXML struct {
	Name        string          `xml:"name,attr"`
	SharedItems *sharedItemsXML `xml:"sharedItems"`
}

type sharedItemsXML struct {
	Items []cacheItemXML `xml:",any"`
}

type cacheItemXML struct {
	XMLName xml.Name
	V       string `xml:"v,attr"`
}

type cacheRecordsXML struct {
	Records []cacheRecordXML `xml:"r"`
}

type cacheRecordXML struct {
	Items []cacheItemXML `xml:",any"`
}

// decodeItem converts one cache item to its Go value: s/d are strings, n is
// numeric, m (missing) and e (error) are nil.
func decodeItem(item cacheItemXML) any {
	switch item.XMLName.Local {
	case "s", "d":
		return item.V
	case "n":
		v, err := strconv.ParseFloat(item.V, 64)
		if err != nil {
			return nil
		}
		return v
	case "m", "e":
		return nil
	default:
		return item.V
	}
}

var cacheNumPattern = regexp.MustCompile(`pivotCacheDefinition(\d+)\.xml$`)

// cacheDefinitions lists the pivot cache definition parts of a workbook,
// sorted by name, relationship parts excluded.
func cacheDefinitions(zr *zip.Reader) []*zip.File {
	var defs []*zip.File
	for _, f := range zr.File {
		if strings.Contains(f.Name, "pivotCacheDefinition") &&
			strings.HasSuffix(f.Name, ".xml") &&
			!strings.Contains(f.Name, "_rels") {
			defs = append(defs, f)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func readZipMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func parseDefinition(f *zip.File) (*cacheDefinitionXML, error) {
	data, err := readZipMember(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	var def cacheDefinitionXML
	if err := xml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Name, err)
	}
	return &def, nil
}

func recordsPathFor(defName string) string {
	m := cacheNumPattern.FindStringSubmatch(defName)
	if m == nil {
		return ""
	}
	return "xl/pivotCache/pivotCacheRecords" + m[1] + ".xml"
}

func findZipMember(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FindCacheByMarkers locates the data block whose field names contain at
// least min of the marker fields. Returns the definition and records members.
func FindCacheByMarkers(zr *zip.Reader, markers []string, min int) (*zip.File, *zip.File, error) {
	for _, defFile := range cacheDefinitions(zr) {
		def, err := parseDefinition(defFile)
		if err != nil {
			continue
		}
		hits := 0
		for _, field := range def.Fields {
			for _, marker := range markers {
				if field.Name == marker {
					hits++
				}
			}
		}
		if hits < min {
			continue
		}
		recName := recordsPathFor(defFile.Name)
		if rec := findZipMember(zr, recName); rec != nil {
			return defFile, rec, nil
		}
	}
	return nil, nil, &SchemaError{Reason: "no pivot cache matches the marker fields"}
}

// FindLargestCache locates the statement data block, which is reliably the
// cache with the largest records part.
func FindLargestCache(zr *zip.Reader) (*zip.File, *zip.File, error) {
	var best *zip.File
	for _, f := range zr.File {
		if strings.Contains(f.Name, "pivotCacheRecords") && strings.HasSuffix(f.Name, ".xml") {
			if best == nil || f.UncompressedSize64 > best.UncompressedSize64 {
				best = f
			}
		}
	}
	if best == nil {
		return nil, nil, &FormatError{Reason: "no pivot cache records in workbook"}
	}
	defName := strings.Replace(best.Name, "pivotCacheRecords", "pivotCacheDefinition", 1)
	def := findZipMember(zr, defName)
	if def == nil {
		return nil, nil, &FormatError{Reason: fmt.Sprintf("missing definition for %s", best.Name)}
	}
	return def, best, nil
}

// ParseCacheTable decodes one data block, resolving dictionary references to
// their shared values.
func ParseCacheTable(defFile, recFile *zip.File) (*CacheTable, error) {
	def, err := parseDefinition(defFile)
	if err != nil {
		return nil, err
	}

	fields := make([]string, len(def.Fields))
	shared := make([][]any, len(def.Fields))
	for i, f := range def.Fields {
		fields[i] = f.Name
		if f.SharedItems == nil {
			continue
		}
		values := make([]any, len(f.SharedItems.Items))
		for j, item := range f.SharedItems.Items {
			values[j] = decodeItem(item)
		}
		shared[i] = values
	}

	data, err := readZipMember(recFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", recFile.Name, err)
	}
	var records cacheRecordsXML
	if err := xml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", recFile.Name, err)
	}

	table := &CacheTable{Fields: fields}
	for _, rec := range records.Records {
		row := make(map[string]any, len(fields))
		for i, item := range rec.Items {
			if i >= len(fields) {
				break
			}
			if item.XMLName.Local == "x" {
				idx, err := strconv.Atoi(item.V)
				if err != nil || shared[i] == nil || idx < 0 || idx >= len(shared[i]) {
					row[fields[i]] = nil
					continue
				}
				row[fields[i]] = shared[i][idx]
				continue
			}
			row[fields[i]] = decodeItem(item)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// OpenWorkbookArchive opens workbook bytes as the OOXML ZIP they are.
func OpenWorkbookArchive(data []byte) (*zip.Reader, error) {
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}
