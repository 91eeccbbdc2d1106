package accounts

import (
	"testing"

	"github.com/jp1309/cooperativas/internal/catalog"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"", 0},
		{"1", 1},
		{"14", 2},
		{"140", 3},
		{"1401", 3},
		{"14010", 4},
		{"140105", 4},
		{"1401055", 5},
	}
	for _, tt := range tests {
		if got := Level(tt.code); got != tt.want {
			t.Errorf("Level(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	labels := []Label{
		{"1", "ACTIVOS"},
		{"11", "FONDOS DISPONIBLES"},
		{"14", "CARTERA DE CREDITOS"},
		{"1401", "CARTERA COMERCIAL"},
		{"140105", "DE 1 A 30 DIAS"},
		{"2", "PASIVOS"},
		{"21", "OBLIGACIONES CON EL PUBLICO"},
	}

	h := Build(labels, catalog.ValidLevel1())

	if len(h.Roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(h.Roots))
	}
	root := h.Roots["1"]
	if root == nil || root.Name != "ACTIVOS" {
		t.Fatalf("missing root 1: %+v", root)
	}
	if _, ok := root.Children["14"]; !ok {
		t.Error("expected 14 under 1")
	}
	if _, ok := root.Children["14"].Children["1401"]; !ok {
		t.Error("expected 1401 under 14")
	}
	leaf := h.Lookup("140105")
	if leaf == nil || leaf.Name != "DE 1 A 30 DIAS" {
		t.Errorf("Lookup(140105) = %+v", leaf)
	}
}

func TestBuild_OrphansDropped(t *testing.T) {
	labels := []Label{
		{"1", "ACTIVOS"},
		{"25", "CUENTAS POR PAGAR"},     // parent 2 missing
		{"1301", "A VALOR RAZONABLE"},   // parent 13 missing
		{"140105", "DE 1 A 30 DIAS"},    // parents 14 and 1401 missing
	}

	h := Build(labels, catalog.ValidLevel1())

	if len(h.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(h.Roots))
	}
	if h.Dropped != 3 {
		t.Errorf("Dropped = %d, want 3", h.Dropped)
	}
	if n := h.Lookup("25"); n != nil {
		t.Errorf("orphan 25 must not appear anywhere, got %+v", n)
	}
	if n := h.Lookup("1301"); n != nil {
		t.Errorf("orphan 1301 must not appear anywhere, got %+v", n)
	}
}

func TestBuild_InvalidRoots(t *testing.T) {
	labels := []Label{
		{"8", "CONTINGENTES"},
		{"9", "CUENTAS DE ORDEN"},
		{"1", "ACTIVOS"},
		{"X1", "NO NUMERICO"},
	}

	h := Build(labels, catalog.ValidLevel1())

	if len(h.Roots) != 1 {
		t.Errorf("expected only root 1, got %d roots", len(h.Roots))
	}
	if h.Dropped != 3 {
		t.Errorf("Dropped = %d, want 3", h.Dropped)
	}
}
