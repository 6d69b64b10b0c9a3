// Package records loads sales and purchase lines from CSV exports.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/budgidesk/invoice-engine/internal/money"
	"github.com/budgidesk/invoice-engine/internal/tax"
)

// Column names are matched case-insensitively after trimming. Accounting
// exports disagree on VAT column naming, so both variants are accepted.
var columnAliases = map[string]string{
	"total":      "total",
	"vat_amount": "vat",
	"vat":        "vat",
	"net_amount": "net",
	"net":        "net",
}

// LoadCSV reads tax records from a CSV file with a header row. The file must
// carry a total column; vat and net columns are optional and default to
// zero. Amount cells go through the locale-tolerant money parser, so both
// "1,234.56" and "1.234,56" load correctly.
func LoadCSV(path string) ([]tax.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	if _, ok := cols["total"]; !ok {
		return nil, fmt.Errorf("records file %s: no total column in header %v", path, header)
	}

	var out []tax.Record
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("records file %s line %d: %w", path, line+1, err)
		}
		line++

		out = append(out, tax.Record{
			Total:     cell(row, cols, "total"),
			VATAmount: cell(row, cols, "vat"),
			NetAmount: cell(row, cols, "net"),
		})
	}
	return out, nil
}

func cell(row []string, cols map[string]int, name string) decimal.Decimal {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return decimal.Zero
	}
	return money.Parse(row[i])
}
