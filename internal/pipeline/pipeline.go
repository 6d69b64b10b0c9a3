// Package pipeline sequences text acquisition and field extraction into a
// single document-to-record step.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budgidesk/invoice-engine/constants"
	"github.com/budgidesk/invoice-engine/internal/fields"
	"github.com/budgidesk/invoice-engine/internal/ocr"
)

// Confidence levels on extraction results. Low-confidence results are meant
// for manual review, not silent trust.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

const fallbackDescription = "OCR processing failed"

const previewLen = 200

// Result is the structured outcome of one document extraction. It is plain
// data: persistence and presentation belong to the caller.
type Result struct {
	Supplier       string          `json:"supplier"`
	Date           string          `json:"date"` // YYYY-MM-DD, or empty when unknown
	Total          decimal.Decimal `json:"total"`
	VAT            decimal.Decimal `json:"vat"`
	Description    string          `json:"description"`
	RawTextPreview string          `json:"raw_text_preview"`
	Confidence     string          `json:"confidence"` // "high" | "low"
	Method         string          `json:"method"`     // acquisition path used
}

// TextAcquirer yields the page text for a document on disk. ocr.Acquirer is
// the production implementation.
type TextAcquirer interface {
	Acquire(ctx context.Context, path, kind string) (ocr.PageText, string)
}

// Config holds thresholds and extractor tunables for the pipeline.
type Config struct {
	// MinTextLen is the least acquired text that is worth extracting from;
	// below it the fixed fallback result is returned without running the
	// extractors.
	MinTextLen int
	Fields     fields.Config
}

type Pipeline struct {
	acq    TextAcquirer
	cfg    Config
	logger *slog.Logger
}

func NewPipeline(acq TextAcquirer, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = 10
	}
	return &Pipeline{acq: acq, cfg: cfg, logger: logger}
}

// Process extracts a structured result from raw document bytes of the given
// media kind (constants.PDF or constants.IMAGE). It never returns an error:
// anything unreadable degrades to the fixed fallback result.
func (p *Pipeline) Process(ctx context.Context, data []byte, kind string) Result {
	runID := uuid.New()
	start := time.Now()

	path, cleanup, err := stageBytes(data, kind)
	if err != nil {
		p.logger.Error("pipeline.stage.failed", "run_id", runID, "error", err)
		return p.Fallback()
	}
	defer cleanup()

	pages, method := p.acq.Acquire(ctx, path, kind)
	res := p.fromPages(pages, method, runID)

	p.logger.Info("pipeline.process.done",
		"run_id", runID,
		"kind", kind,
		"method", res.Method,
		"supplier", res.Supplier,
		"total", res.Total,
		"confidence", res.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// ProcessFile is a convenience wrapper for documents already on disk. The
// media kind is taken from the file extension; unsupported extensions are a
// caller error.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (Result, error) {
	kind := constants.MapExtToFormat(filepath.Ext(path))
	if kind == "" {
		return Result{}, fmt.Errorf("unsupported extension: %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read document: %w", err)
	}
	return p.Process(ctx, data, kind), nil
}

// Fallback is the single designated failure result: zeroed amounts, the
// supplier sentinel, empty date, low confidence. Every unusable document
// maps onto exactly this value.
func (p *Pipeline) Fallback() Result {
	sentinel := p.cfg.Fields.SupplierSentinel
	if sentinel == "" {
		sentinel = fields.DefaultConfig().SupplierSentinel
	}
	return Result{
		Supplier:    sentinel,
		Date:        "",
		Total:       decimal.Zero,
		VAT:         decimal.Zero,
		Description: fallbackDescription,
		Confidence:  ConfidenceLow,
		Method:      ocr.MethodNone,
	}
}

func (p *Pipeline) fromPages(pages ocr.PageText, method string, runID uuid.UUID) Result {
	text := pages.Join()
	if len(strings.TrimSpace(text)) < p.cfg.MinTextLen {
		p.logger.Warn("pipeline.text.unusable", "run_id", runID, "bytes", len(text))
		return p.Fallback()
	}

	lines := ocr.Lines(pages)

	// the extractors share the normalized lines read-only
	var (
		supplier string
		date     string
		amounts  fields.AmountsResult
		wg       sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		supplier = fields.ExtractSupplier(lines, p.cfg.Fields)
	}()
	go func() {
		defer wg.Done()
		date = fields.ExtractDate(text)
	}()
	go func() {
		defer wg.Done()
		amounts = fields.ExtractAmounts(lines, p.cfg.Fields)
	}()
	wg.Wait()

	total := amounts.Total.Value
	vat := amounts.VAT.Value
	// sanity correction: a VAT figure above the total is never right
	if total.IsPositive() && vat.GreaterThan(total) {
		p.logger.Warn("pipeline.vat.clamped", "run_id", runID, "vat", vat, "total", total)
		vat = total
	}

	confidence := ConfidenceLow
	if total.IsPositive() {
		confidence = ConfidenceHigh
	}

	preview := text
	if len(preview) > previewLen {
		cut := previewLen
		// back off to a rune boundary so the preview stays valid UTF-8
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut] + "..."
	}

	return Result{
		Supplier:       supplier,
		Date:           date,
		Total:          total,
		VAT:            vat,
		Description:    "Invoice from " + supplier,
		RawTextPreview: preview,
		Confidence:     confidence,
		Method:         method,
	}
}

// stageBytes writes document bytes to a temp file so the external
// recognition tools can see them.
func stageBytes(data []byte, kind string) (string, func(), error) {
	ext := ".bin"
	switch kind {
	case constants.PDF:
		ext = ".pdf"
	case constants.IMAGE:
		ext = ".png"
	}
	f, err := os.CreateTemp("", "inv-doc-*"+ext)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}
