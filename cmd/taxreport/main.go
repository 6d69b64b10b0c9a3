// taxreport computes the VAT and income position for a period from sales and
// purchase CSVs and prints the report as JSON, optionally writing an XLSX
// workbook alongside.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/budgidesk/invoice-engine/internal/common"
	"github.com/budgidesk/invoice-engine/internal/export"
	"github.com/budgidesk/invoice-engine/internal/records"
	"github.com/budgidesk/invoice-engine/internal/tax"
)

func main() {
	var (
		salesPath     = flag.String("sales", "", "sales records CSV")
		purchasesPath = flag.String("purchases", "", "purchase records CSV")
		configPath    = flag.String("config", "", "rates JSON (default: TAX_RATES_PATH or built-in figures)")
		xlsxPath      = flag.String("xlsx", "", "also write an XLSX report to this path")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	envCfg := common.LoadConfig()
	if *configPath == "" {
		*configPath = envCfg.Tax.RatesPath
	}

	cfg := tax.DefaultConfig()
	if *configPath != "" {
		loaded, err := tax.LoadConfig(*configPath)
		if err != nil {
			logger.Error("load rates", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var sales, purchases []tax.Record
	var err error
	if *salesPath != "" {
		if sales, err = records.LoadCSV(*salesPath); err != nil {
			logger.Error("load sales", "path", *salesPath, "error", err)
			os.Exit(1)
		}
	}
	if *purchasesPath != "" {
		if purchases, err = records.LoadCSV(*purchasesPath); err != nil {
			logger.Error("load purchases", "path", *purchasesPath, "error", err)
			os.Exit(1)
		}
	}

	engine := tax.NewEngine(cfg, logger)
	rep := engine.Compute(sales, purchases)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		logger.Error("encode report", "error", err)
		os.Exit(1)
	}

	if *xlsxPath != "" {
		data, err := export.NewService(logger).ReportXLSX(rep, sales, purchases)
		if err != nil {
			logger.Error("render xlsx", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxPath, data, 0o644); err != nil {
			logger.Error("write xlsx", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
		logger.Info("xlsx written", "path", *xlsxPath)
	}
}
