package tax

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"github.com/budgidesk/invoice-engine/internal/common"
)

// Bracket is one progressive income-tax step: Rate applies to income up to
// Bound beyond what earlier brackets consumed.
type Bracket struct {
	Bound decimal.Decimal `json:"bound"`
	Rate  decimal.Decimal `json:"rate"`
}

// Band is one social-charge slice over the range [Lower, Upper).
type Band struct {
	Lower decimal.Decimal `json:"lower"`
	Upper decimal.Decimal `json:"upper"`
	Rate  decimal.Decimal `json:"rate"`
}

// Config carries every rate and threshold the engine uses. Figures live in
// configuration, not code, so a new tax year is a data change.
type Config struct {
	IncomeTaxBrackets []Bracket       `json:"income_tax_brackets"`
	SocialChargeBands []Band          `json:"social_charge_bands"`
	DefaultVATRate    decimal.Decimal `json:"default_vat_rate"`
	FlatCredit        decimal.Decimal `json:"flat_credit"`
	LevyRate          decimal.Decimal `json:"levy_rate"`
}

// upperBound caps the open-ended top bracket and band.
const upperBound = 9999999

// DefaultConfig returns the built-in Irish self-assessed figures.
func DefaultConfig() Config {
	return Config{
		IncomeTaxBrackets: []Bracket{
			{Bound: decimal.NewFromInt(44000), Rate: requireDec("0.20")},
			{Bound: decimal.NewFromInt(upperBound), Rate: requireDec("0.40")},
		},
		SocialChargeBands: []Band{
			{Lower: decimal.Zero, Upper: decimal.NewFromInt(12012), Rate: requireDec("0.005")},
			{Lower: decimal.NewFromInt(12012), Upper: decimal.NewFromInt(25760), Rate: requireDec("0.02")},
			{Lower: decimal.NewFromInt(25760), Upper: decimal.NewFromInt(70044), Rate: requireDec("0.045")},
			{Lower: decimal.NewFromInt(70044), Upper: decimal.NewFromInt(upperBound), Rate: requireDec("0.08")},
		},
		DefaultVATRate: requireDec("0.23"),
		FlatCredit:     decimal.NewFromInt(4000),
		LevyRate:       requireDec("0.04"),
	}
}

func requireDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["income_tax_brackets", "social_charge_bands", "default_vat_rate", "flat_credit", "levy_rate"],
  "additionalProperties": false,
  "properties": {
    "income_tax_brackets": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["bound", "rate"],
        "additionalProperties": false,
        "properties": {
          "bound": {"type": "number", "exclusiveMinimum": 0},
          "rate": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "social_charge_bands": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["lower", "upper", "rate"],
        "additionalProperties": false,
        "properties": {
          "lower": {"type": "number", "minimum": 0},
          "upper": {"type": "number", "exclusiveMinimum": 0},
          "rate": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "default_vat_rate": {"type": "number", "minimum": 0, "maximum": 1},
    "flat_credit": {"type": "number", "minimum": 0},
    "levy_rate": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var compiledSchema = jsonschema.MustCompileString("tax-config.schema.json", configSchema)

// LoadConfig reads and validates a rate table from a JSON file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read tax config: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Config{}, common.NewAppError(common.CodeInvalidConfig, "tax config is not valid JSON", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return Config{}, common.NewAppError(common.CodeInvalidConfig, "tax config rejected by schema", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, common.NewAppError(common.CodeInvalidConfig, "tax config decode failed", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the structural rules the schema cannot express: bracket
// bounds strictly ascending, bands contiguous from zero. The engine trusts a
// validated Config and does not recheck per call.
func (c Config) Validate() error {
	if len(c.IncomeTaxBrackets) == 0 {
		return common.NewAppError(common.CodeInvalidConfig, "no income tax brackets", nil)
	}
	for i := 1; i < len(c.IncomeTaxBrackets); i++ {
		if !c.IncomeTaxBrackets[i].Bound.GreaterThan(c.IncomeTaxBrackets[i-1].Bound) {
			return common.NewAppError(common.CodeInvalidConfig,
				fmt.Sprintf("bracket bounds not ascending at index %d", i), nil)
		}
	}

	if len(c.SocialChargeBands) == 0 {
		return common.NewAppError(common.CodeInvalidConfig, "no social charge bands", nil)
	}
	if !c.SocialChargeBands[0].Lower.IsZero() {
		return common.NewAppError(common.CodeInvalidConfig, "first social charge band must start at zero", nil)
	}
	for i, b := range c.SocialChargeBands {
		if !b.Upper.GreaterThan(b.Lower) {
			return common.NewAppError(common.CodeInvalidConfig,
				fmt.Sprintf("social charge band %d has upper <= lower", i), nil)
		}
		if i > 0 && !b.Lower.Equal(c.SocialChargeBands[i-1].Upper) {
			return common.NewAppError(common.CodeInvalidConfig,
				fmt.Sprintf("social charge bands not contiguous at index %d", i), nil)
		}
	}
	return nil
}

// bandLabel renders a band for report breakdowns, e.g. "€0.00 - €12012.00".
func bandLabel(b Band) string {
	return "€" + b.Lower.StringFixed(2) + " - €" + b.Upper.StringFixed(2)
}

// rateLabel renders a rate as a percentage, e.g. "0.5%".
func rateLabel(r decimal.Decimal) string {
	return r.Mul(decimal.NewFromInt(100)).String() + "%"
}
