package entity

import (
	"testing"

	"github.com/jp1309/cooperativas/internal/catalog"
)

func defaultCanonicalizer() *Canonicalizer {
	return New(Tables{
		LegalFormPrefixes: catalog.LegalFormPrefixes,
		Corrections:       catalog.NameCorrections,
		ShortNames:        catalog.MutualistNames,
		TierSignal:        catalog.MutualistTierSignal,
	})
}

func TestCanonical(t *testing.T) {
	c := defaultCanonicalizer()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "prefix and long suffix",
			raw:  "COOPERATIVA DE AHORRO Y CREDITO X LIMITADA",
			want: "X LTDA",
		},
		{
			name: "accented prefix",
			raw:  "COOPERATIVA DE AHORRO Y CRÉDITO JARDIN AZUAYO LTDA",
			want: "JARDIN AZUAYO LTDA",
		},
		{
			name: "abbreviated prefix",
			raw:  "COOP. DE AHORRO Y CREDITO RIOBAMBA LTDA",
			want: "RIOBAMBA LTDA",
		},
		{
			name: "trailing period after abbreviation",
			raw:  "JUVENTUD ECUATORIANA PROGRESISTA LTDA.",
			want: "JUVENTUD ECUATORIANA PROGRESISTA LTDA",
		},
		{
			name: "repeated whitespace collapsed",
			raw:  "  POLICIA   NACIONAL   LTDA ",
			want: "POLICIA NACIONAL LTDA",
		},
		{
			name: "known historical correction",
			raw:  "FERNANDO DAQUILEMA",
			want: "FERNANDO DAQUILEMA LTDA",
		},
		{
			name: "correction applied after cleaning",
			raw:  "COOPERATIVA DE AHORRO Y CREDITO SUMAK SISA",
			want: "SISA",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "whitespace only",
			raw:  "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Canonical(tt.raw); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanonical_Idempotent(t *testing.T) {
	c := defaultCanonicalizer()

	names := []string{
		"X LTDA",
		"JARDIN AZUAYO LTDA",
		"FERNANDO DAQUILEMA LTDA",
		"Mutualista Ambato",
	}
	for _, name := range names {
		if got := c.Canonical(name); got != name {
			t.Errorf("Canonical(%q) = %q, want unchanged", name, got)
		}
	}
}

func TestCanonicalForTier(t *testing.T) {
	c := defaultCanonicalizer()

	tests := []struct {
		name string
		raw  string
		tier string
		want string
	}{
		{
			name: "short code resolved inside mutualist tier",
			raw:  "AMBATO",
			tier: "SEGMENTO 1 MUTUALISTA",
			want: "Mutualista Ambato",
		},
		{
			name: "same short code outside signal untouched",
			raw:  "AMBATO",
			tier: "SEGMENTO 2",
			want: "AMBATO",
		},
		{
			name: "non-mapped name inside signal untouched",
			raw:  "PICHINCHA NORTE LTDA",
			tier: "SEGMENTO 1 MUTUALISTA",
			want: "PICHINCHA NORTE LTDA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.CanonicalForTier(tt.raw, tt.tier); got != tt.want {
				t.Errorf("CanonicalForTier(%q, %q) = %q, want %q", tt.raw, tt.tier, got, tt.want)
			}
		})
	}
}
