package catalog

import "strings"

// Classification tiers assigned by the regulator.
const (
	TierSegment1  = "SEGMENTO 1"
	TierSegment2  = "SEGMENTO 2"
	TierSegment3  = "SEGMENTO 3"
	TierMutualist = "SEGMENTO 1 MUTUALISTA"
	TierUnknown   = "DESCONOCIDO"
)

// IgnoredEntities are inter-cooperative clearing houses that report through
// the same extracts but are not retail institutions. Matching is
// case-insensitive substring on the reported name or source file name.
var IgnoredEntities = []string{
	"CONAFIPS",
	"FINANCOOP",
}

// SystemTotalMarkers flag rows that carry a system-wide total instead of an
// individual institution.
var SystemTotalMarkers = []string{
	"VT_TOTAL",
	"TOTAL SISTEMA",
	"TOTAL GENERAL",
}

// NameCorrections maps cleaned-but-still-divergent names to the canonical
// name used across the whole history. These cover renamings, truncations and
// typos observed in the published extracts.
var NameCorrections = map[string]string{
	"ALFONSO JARAMILLO LEON CCC":                         "ALFONSO JARAMILLO LEON CAJA",
	"FERNANDO DAQUILEMA":                                 "FERNANDO DAQUILEMA LTDA",
	"VISION DE LOS ANDES VISANDES":                       "VISION DE LOS ANDES VIS ANDES",
	"EDUCADORES DE LOJA LTDA":                            "EDUCADORES DE LOJA - CACEL LTDA",
	"SUMAK SISA":                                         "SISA",
	"DE LA PEQUENA EMPRESA CACPE ZAMORA LTDA":            "DE LA PEQUEÑA EMPRESA CACPE ZAMORA CHINCHIPE LTDA",
	"CAMARA DE COMERCIO DE SANTO DOMINGO EN LIQUIDACION": "CAMARA DE COMERCIO DE SANTO DOMINGO",
	"PARA LA VIVIENDA ORDEN Y SEGURIDAD":                 `ORDEN Y SEGURIDAD "OYS"`,
}

// MutualistNames maps the short codes mutual savings banks report under in
// the pivot caches to the canonical long names the balance extracts use. The
// mapping only applies to rows whose tier carries the mutualist signal, so an
// unrelated cooperative named AMBATO is left alone.
var MutualistNames = map[string]string{
	"AMBATO":    "Mutualista Ambato",
	"AZUAY":     "Mutualista Azuay",
	"IMBABURA":  "Mutualista Imbabura",
	"PICHINCHA": "Mutualista Pichincha",
}

// MutualistTierSignal is the substring of the classification tier that
// enables the MutualistNames mapping.
const MutualistTierSignal = "MUTUALISTA"

// LegalFormPrefixes are the legal-form prefixes stripped from reported names,
// longest variants first. Comparison is case-insensitive.
var LegalFormPrefixes = []string{
	"COOPERATIVA DE AHORRO Y CREDITO ",
	"COOPERATIVA DE AHORRO Y CRÉDITO ",
	"COOP. DE AHORRO Y CREDITO ",
}

// TierFromFilename derives the classification tier implied by a workbook's
// file name, used when the extract carries no tier field of its own.
func TierFromFilename(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "segmento 1") || strings.Contains(lower, "segmento_1"):
		return TierSegment1
	case strings.Contains(lower, "segmento 2") || strings.Contains(lower, "segmento_2"):
		return TierSegment2
	case strings.Contains(lower, "segmento 3") || strings.Contains(lower, "segmento_3"):
		return TierSegment3
	case strings.Contains(lower, "mutualista"):
		return TierMutualist
	}
	return TierUnknown
}

// IsIgnoredEntity reports whether a reported name or file name belongs to the
// non-retail ignore list.
func IsIgnoredEntity(name string, ignored []string) bool {
	lower := strings.ToLower(name)
	for _, ig := range ignored {
		if strings.Contains(lower, strings.ToLower(ig)) {
			return true
		}
	}
	return false
}

// IsSystemTotal reports whether a reported name represents a system-wide
// total row rather than an institution.
func IsSystemTotal(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range SystemTotalMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
