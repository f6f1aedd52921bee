package pricing

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"PortfolioRebalancer/internal/model"
)

func TestMock_GetPrice(t *testing.T) {
	down := errors.New("down")
	m := &Mock{
		Prices: map[string]float64{"APPL": 150},
		Errors: map[string]error{"META": down},
	}
	if p, err := m.GetPrice("APPL"); err != nil || p != 150 {
		t.Errorf("APPL: expected 150, got %v (%v)", p, err)
	}
	if _, err := m.GetPrice("META"); !errors.Is(err, down) {
		t.Errorf("META: expected forced error, got %v", err)
	}
	if _, err := m.GetPrice("ZZZ"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ZZZ: expected not found, got %v", err)
	}
}

func TestBind(t *testing.T) {
	src := Table{"APPL": 1}
	fb := Bind([]string{"APPL", "META"}, src)
	if len(fb) != 2 || fb[0].Ticker != "APPL" || fb[1].Ticker != "META" {
		t.Fatalf("unexpected fallbacks: %+v", fb)
	}
	if Name(fb[1].Source) != "table" {
		t.Errorf("expected table source, got %s", Name(fb[1].Source))
	}
}

func TestName_Unnamed(t *testing.T) {
	src := model.PriceSourceFunc(func(string) (float64, error) { return 1, nil })
	if got := Name(src); got != "model.PriceSourceFunc" {
		t.Errorf("unexpected name %q", got)
	}
}

func TestTable_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	if err := os.WriteFile(path, []byte(`{"APPL": 150.5, "META": 300}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := LoadTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p, err := tbl.GetPrice("APPL"); err != nil || p != 150.5 {
		t.Errorf("APPL: expected 150.5, got %v (%v)", p, err)
	}
	if _, err := tbl.GetPrice("ZZZ"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ZZZ: expected not found, got %v", err)
	}
}

func TestTable_LoadErrors(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
