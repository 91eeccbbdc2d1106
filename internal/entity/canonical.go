// Package entity resolves raw reported institution names to one canonical
// name per institution, stable across the whole history. Name drift between
// yearly extracts (legal-form prefixes, LIMITADA vs LTDA, renamings, the
// short codes mutual savings banks report under) would otherwise split one
// institution's record into several.
package entity

import "strings"

// Canonicalizer normalizes institution names. All lookup tables are injected
// at construction; the methods are pure functions over them.
type Canonicalizer struct {
	prefixes    []string
	corrections map[string]string
	shortNames  map[string]string
	tierSignal  string
}

// Tables carries the lookup tables a Canonicalizer needs. Zero-value fields
// disable the corresponding rule.
type Tables struct {
	// LegalFormPrefixes are stripped case-insensitively from the front of a
	// name; only the first matching prefix is removed.
	LegalFormPrefixes []string
	// Corrections substitutes known historical renamings after cleaning.
	Corrections map[string]string
	// ShortNames maps short reporting codes to canonical long names, applied
	// only when the row's tier contains TierSignal.
	ShortNames map[string]string
	// TierSignal gates the ShortNames mapping.
	TierSignal string
}

// New builds a Canonicalizer from the given tables.
func New(tables Tables) *Canonicalizer {
	return &Canonicalizer{
		prefixes:    tables.LegalFormPrefixes,
		corrections: tables.Corrections,
		shortNames:  tables.ShortNames,
		tierSignal:  strings.ToUpper(tables.TierSignal),
	}
}

// Canonical returns the canonical form of a raw reported name. A missing or
// blank input yields the empty string; the function never fails.
func (c *Canonicalizer) Canonical(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}

	upper := strings.ToUpper(name)
	for _, prefix := range c.prefixes {
		if strings.HasPrefix(upper, strings.ToUpper(prefix)) {
			name = name[len(prefix):]
			break
		}
	}
	name = strings.TrimSpace(name)

	// Long-form legal suffix to its abbreviation, then the leftover period.
	name = strings.ReplaceAll(name, " LIMITADA", " LTDA")
	if strings.HasSuffix(name, "LTDA.") {
		name = strings.TrimSuffix(name, ".")
	}

	name = strings.Join(strings.Fields(name), " ")

	if corrected, ok := c.corrections[name]; ok {
		name = corrected
	}

	return name
}

// CanonicalForTier canonicalizes a name and additionally resolves short
// reporting codes to their canonical long names when the row's classification
// tier carries the configured signal. Rows outside the signal keep the plain
// canonical form, so unrelated institutions sharing a short code never
// collide.
func (c *Canonicalizer) CanonicalForTier(raw, tier string) string {
	name := c.Canonical(raw)
	if c.tierSignal == "" || !strings.Contains(strings.ToUpper(tier), c.tierSignal) {
		return name
	}
	if long, ok := c.shortNames[name]; ok {
		return long
	}
	return name
}
