package tax

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

const goodRates = `{
  "income_tax_brackets": [
    {"bound": 44000, "rate": 0.20},
    {"bound": 9999999, "rate": 0.40}
  ],
  "social_charge_bands": [
    {"lower": 0, "upper": 12012, "rate": 0.005},
    {"lower": 12012, "upper": 25760, "rate": 0.02},
    {"lower": 25760, "upper": 70044, "rate": 0.045},
    {"lower": 70044, "upper": 9999999, "rate": 0.08}
  ],
  "default_vat_rate": 0.23,
  "flat_credit": 4000,
  "levy_rate": 0.04
}`

func writeRates(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rates.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeRates(t, goodRates))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.IncomeTaxBrackets) != 2 || len(cfg.SocialChargeBands) != 4 {
		t.Fatalf("unexpected table sizes: %d brackets, %d bands",
			len(cfg.IncomeTaxBrackets), len(cfg.SocialChargeBands))
	}
	if !cfg.FlatCredit.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("flat credit = %s", cfg.FlatCredit)
	}
	if !cfg.DefaultVATRate.Equal(dec("0.23")) {
		t.Errorf("vat rate = %s", cfg.DefaultVATRate)
	}
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"income_tax_brackets": [`},
		{"missing field", `{"income_tax_brackets": [{"bound": 1, "rate": 0.2}]}`},
		{"negative rate", `{
			"income_tax_brackets": [{"bound": 44000, "rate": -0.2}],
			"social_charge_bands": [{"lower": 0, "upper": 12012, "rate": 0.005}],
			"default_vat_rate": 0.23, "flat_credit": 4000, "levy_rate": 0.04
		}`},
		{"rate above one", `{
			"income_tax_brackets": [{"bound": 44000, "rate": 1.5}],
			"social_charge_bands": [{"lower": 0, "upper": 12012, "rate": 0.005}],
			"default_vat_rate": 0.23, "flat_credit": 4000, "levy_rate": 0.04
		}`},
		{"unknown key", `{
			"income_tax_brackets": [{"bound": 44000, "rate": 0.2}],
			"social_charge_bands": [{"lower": 0, "upper": 12012, "rate": 0.005}],
			"default_vat_rate": 0.23, "flat_credit": 4000, "levy_rate": 0.04,
			"surprise": true
		}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeRates(t, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfigKeepsExplicitZeros(t *testing.T) {
	body := `{
  "income_tax_brackets": [{"bound": 44000, "rate": 0.20}, {"bound": 9999999, "rate": 0.40}],
  "social_charge_bands": [{"lower": 0, "upper": 9999999, "rate": 0.005}],
  "default_vat_rate": 0.23,
  "flat_credit": 0,
  "levy_rate": 0
}`
	cfg, err := LoadConfig(writeRates(t, body))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.FlatCredit.IsZero() {
		t.Errorf("flat credit = %s, want 0", cfg.FlatCredit)
	}
	if !cfg.LevyRate.IsZero() {
		t.Errorf("levy rate = %s, want 0", cfg.LevyRate)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.json"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestValidateOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncomeTaxBrackets[1].Bound = decimal.NewFromInt(1)
	if err := cfg.Validate(); err == nil {
		t.Error("descending bracket bounds should fail validation")
	}
}

func TestValidateBandGap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SocialChargeBands[1].Lower = decimal.NewFromInt(13000)
	if err := cfg.Validate(); err == nil {
		t.Error("gap between bands should fail validation")
	}
}

func TestValidateBandMustStartAtZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SocialChargeBands[0].Lower = decimal.NewFromInt(1)
	if err := cfg.Validate(); err == nil {
		t.Error("first band not anchored at zero should fail validation")
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
