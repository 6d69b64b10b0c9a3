// Package tax computes VAT liability and self-assessed income charges from
// sales and purchase records using configurable progressive rate tables.
package tax

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// Record is one sales or purchase line fed into the engine. NetAmount is the
// VAT-exclusive figure and is carried on the record rather than derived, so
// documents with mixed-rate line items stay accurate.
type Record struct {
	Total     decimal.Decimal `json:"total"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	NetAmount decimal.Decimal `json:"net_amount"`
}

// VATSummary nets output VAT against input VAT. A negative liability is a
// refund position and is reported as-is.
type VATSummary struct {
	Collected decimal.Decimal `json:"collected"`
	Paid      decimal.Decimal `json:"paid"`
	Liability decimal.Decimal `json:"liability"`
}

// IncomeSummary shows how taxable income was arrived at. Taxable may be
// negative when expenses exceed gross; the progressive charges treat that as
// zero but the figure itself is preserved for the report.
type IncomeSummary struct {
	Gross    decimal.Decimal `json:"gross"`
	Expenses decimal.Decimal `json:"expenses"`
	Taxable  decimal.Decimal `json:"taxable"`
}

// IncomeTaxSummary is the progressive income tax before and after credits.
type IncomeTaxSummary struct {
	Gross   decimal.Decimal `json:"gross"`
	Credits decimal.Decimal `json:"credits"`
	Net     decimal.Decimal `json:"net"`
}

// BandSlice is one row of the social-charge breakdown.
type BandSlice struct {
	Band   string          `json:"band"`
	Rate   string          `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
	Tax    decimal.Decimal `json:"tax"`
}

// SocialChargeSummary is the banded charge with its per-band breakdown.
type SocialChargeSummary struct {
	Total     decimal.Decimal `json:"total"`
	Breakdown []BandSlice     `json:"breakdown"`
}

// Report is the full computed position for one period.
type Report struct {
	VAT          VATSummary          `json:"vat"`
	Income       IncomeSummary       `json:"income"`
	IncomeTax    IncomeTaxSummary    `json:"income_tax"`
	SocialCharge SocialChargeSummary `json:"social_charge"`
	Levy         decimal.Decimal     `json:"levy"`
	TotalTax     decimal.Decimal     `json:"total_tax"`
}

// Engine computes tax reports against a fixed, pre-validated Config.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine builds an engine from a Config that has passed Validate. A
// zero-value Config falls back to the built-in defaults; any populated
// Config is taken as-is, so a rates file that sets a zero credit or levy is
// honored.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.IncomeTaxBrackets) == 0 && len(cfg.SocialChargeBands) == 0 &&
		cfg.DefaultVATRate.IsZero() && cfg.FlatCredit.IsZero() && cfg.LevyRate.IsZero() {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Compute produces the period report for the given sales and purchases.
func (e *Engine) Compute(sales, purchases []Record) Report {
	var rep Report

	for _, r := range sales {
		rep.VAT.Collected = rep.VAT.Collected.Add(r.VATAmount)
		rep.Income.Gross = rep.Income.Gross.Add(r.Total)
	}
	for _, r := range purchases {
		rep.VAT.Paid = rep.VAT.Paid.Add(r.VATAmount)
		rep.Income.Expenses = rep.Income.Expenses.Add(r.NetAmount)
	}
	rep.VAT.Collected = rep.VAT.Collected.Round(2)
	rep.VAT.Paid = rep.VAT.Paid.Round(2)
	rep.VAT.Liability = rep.VAT.Collected.Sub(rep.VAT.Paid).Round(2)

	rep.Income.Gross = rep.Income.Gross.Round(2)
	rep.Income.Expenses = rep.Income.Expenses.Round(2)
	rep.Income.Taxable = rep.Income.Gross.Sub(rep.Income.Expenses).Round(2)

	// progressive charges never apply to a loss
	base := rep.Income.Taxable
	if base.IsNegative() {
		base = decimal.Zero
	}

	rep.IncomeTax = e.incomeTax(base)
	rep.SocialCharge = e.socialCharge(base)
	rep.Levy = base.Mul(e.cfg.LevyRate).Round(2)
	rep.TotalTax = rep.IncomeTax.Net.Add(rep.SocialCharge.Total).Add(rep.Levy).Round(2)

	e.logger.Info("tax.compute.done",
		"sales", len(sales),
		"purchases", len(purchases),
		"vat_liability", rep.VAT.Liability,
		"taxable", rep.Income.Taxable,
		"total_tax", rep.TotalTax,
	)
	return rep
}

// incomeTax walks the brackets, each consuming up to its bound from the
// remaining income.
func (e *Engine) incomeTax(base decimal.Decimal) IncomeTaxSummary {
	var gross decimal.Decimal
	remaining := base

	for _, br := range e.cfg.IncomeTaxBrackets {
		if !remaining.IsPositive() {
			break
		}
		amount := decimal.Min(remaining, br.Bound).Round(2)
		gross = gross.Add(amount.Mul(br.Rate))
		remaining = remaining.Sub(amount)
	}
	gross = gross.Round(2)

	net := gross.Sub(e.cfg.FlatCredit)
	if net.IsNegative() {
		net = decimal.Zero
	}
	return IncomeTaxSummary{
		Gross:   gross,
		Credits: e.cfg.FlatCredit,
		Net:     net.Round(2),
	}
}

// socialCharge slices the base across the contiguous bands, recording a
// breakdown row per band actually touched.
func (e *Engine) socialCharge(base decimal.Decimal) SocialChargeSummary {
	var sc SocialChargeSummary

	for _, b := range e.cfg.SocialChargeBands {
		if base.LessThanOrEqual(b.Lower) {
			break
		}
		top := decimal.Min(base, b.Upper)
		amount := top.Sub(b.Lower).Round(2)
		tax := amount.Mul(b.Rate).Round(2)
		sc.Breakdown = append(sc.Breakdown, BandSlice{
			Band:   bandLabel(b),
			Rate:   rateLabel(b.Rate),
			Amount: amount,
			Tax:    tax,
		})
		sc.Total = sc.Total.Add(tax)
	}
	sc.Total = sc.Total.Round(2)
	return sc
}
