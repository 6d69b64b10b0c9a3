// Package ocr acquires plain text from invoice documents.
//
// Digitally generated PDFs are read through their text layer; scanned PDFs
// and images go through an external recognition step (tesseract), with
// images lightly preprocessed first to help recognition. Acquisition is a
// best-effort boundary: any failure degrades to empty text rather than an
// error, leaving the fallback decision to the caller.
package ocr

import (
	"context"
	"log/slog"
	"strings"

	"github.com/budgidesk/invoice-engine/constants"
)

// Acquisition methods, recorded on results for log correlation.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
	MethodNone     = "none"
)

// PageText is the recognized text of a document, one entry per page, in
// page order.
type PageText []string

// Join concatenates all pages into a single string.
func (p PageText) Join() string {
	return strings.Join(p, "\n")
}

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	// MinTextLen is the threshold below which a PDF text layer is treated
	// as "likely a scanned image" and re-acquired through recognition.
	MinTextLen int

	// MinImageDim is the minimum shorter-side pixel count; smaller images
	// are upscaled before recognition.
	MinImageDim int
}

// Acquirer turns a document file into page text.
type Acquirer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewAcquirer(cfg Config, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = 10
	}
	if cfg.MinImageDim <= 0 {
		cfg.MinImageDim = 1000
	}
	return &Acquirer{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Acquire yields the text of the document at path for the given media kind
// (constants.PDF or constants.IMAGE) plus the method that produced it.
//
// It never returns an error: unreadable files, missing binaries and
// recognition failures are logged and surface as empty pages. Callers bound
// the slow recognition path through ctx.
func (a *Acquirer) Acquire(ctx context.Context, path, kind string) (PageText, string) {
	switch kind {
	case constants.PDF:
		return a.acquirePDF(ctx, path)
	case constants.IMAGE:
		return a.acquireImage(ctx, path)
	default:
		a.logger.Warn("ocr.acquire.unsupported_kind", "kind", kind, "path", path)
		return nil, MethodNone
	}
}

func (a *Acquirer) acquirePDF(ctx context.Context, path string) (PageText, string) {
	pages, err := a.pdfText(ctx, path)
	if err == nil && len(strings.TrimSpace(pages.Join())) >= a.cfg.MinTextLen {
		a.logger.Debug("ocr.pdf_text.ok", "path", path, "pages", len(pages))
		return pages, MethodPDFText
	}
	if err != nil {
		a.logger.Warn("ocr.pdf_text.failed", "path", path, "error", err)
	} else {
		a.logger.Info("ocr.pdf_text.too_short", "path", path, "bytes", len(pages.Join()))
	}

	pages, err = a.pdfOCR(ctx, path)
	if err != nil {
		a.logger.Warn("ocr.pdf_ocr.failed", "path", path, "error", err)
		return nil, MethodNone
	}
	return pages, MethodPDFOCR
}

func (a *Acquirer) acquireImage(ctx context.Context, path string) (PageText, string) {
	prepped, cleanup, err := a.preprocess(path)
	if err != nil {
		// recognition can still work on the raw image
		a.logger.Warn("ocr.preprocess.failed", "path", path, "error", err)
		prepped = path
	}
	if cleanup != nil {
		defer cleanup()
	}

	txt, err := a.tesseract(ctx, prepped)
	if err != nil {
		a.logger.Warn("ocr.image_ocr.failed", "path", path, "error", err)
		return nil, MethodNone
	}
	txt = Normalize(txt)
	if txt == "" {
		return nil, MethodNone
	}
	return PageText{txt}, MethodImageOCR
}
