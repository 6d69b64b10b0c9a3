// Package export renders computed tax reports as XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/budgidesk/invoice-engine/internal/tax"
)

// Service produces XLSX bytes for tax reports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReportXLSX renders a computed report plus its input records as a workbook
// with a Summary sheet and one sheet each for sales and purchases.
func (s *Service) ReportXLSX(rep tax.Report, sales, purchases []tax.Record) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 1
	section := func(title string) {
		write(summary, 1, row, title)
		row++
	}
	line := func(label string, v decimal.Decimal) {
		write(summary, 1, row, label)
		write(summary, 2, row, v.StringFixed(2))
		row++
	}

	section("VAT")
	line("Collected", rep.VAT.Collected)
	line("Paid", rep.VAT.Paid)
	line("Liability", rep.VAT.Liability)
	row++

	section("Income")
	line("Gross", rep.Income.Gross)
	line("Expenses", rep.Income.Expenses)
	line("Taxable", rep.Income.Taxable)
	row++

	section("Income Tax")
	line("Gross", rep.IncomeTax.Gross)
	line("Credits", rep.IncomeTax.Credits)
	line("Net", rep.IncomeTax.Net)
	row++

	section("Social Charge")
	for _, b := range rep.SocialCharge.Breakdown {
		write(summary, 1, row, b.Band)
		write(summary, 2, row, b.Rate)
		write(summary, 3, row, b.Amount.StringFixed(2))
		write(summary, 4, row, b.Tax.StringFixed(2))
		row++
	}
	line("Total", rep.SocialCharge.Total)
	row++

	line("Levy", rep.Levy)
	line("Total Tax", rep.TotalTax)

	_ = f.SetColWidth(summary, "A", "A", 28)
	_ = f.SetColWidth(summary, "B", "D", 16)

	if err := s.recordsSheet(f, "Sales", sales); err != nil {
		return nil, err
	}
	if err := s.recordsSheet(f, "Purchases", purchases); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sales", len(sales),
		"purchases", len(purchases),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) recordsSheet(f *excelize.File, sheet string, recs []tax.Record) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}

	headers := []string{"Total", "VAT Amount", "Net Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range recs {
		row := i + 2
		for col, v := range []decimal.Decimal{r.Total, r.VATAmount, r.NetAmount} {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v.StringFixed(2))
		}
	}

	_ = f.SetColWidth(sheet, "A", "C", 14)
	return nil
}
