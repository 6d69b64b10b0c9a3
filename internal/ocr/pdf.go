package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// pdfText reads the PDF's native text layer, one entry per page.
func (a *Acquirer) pdfText(ctx context.Context, path string) (PageText, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := a.runner.Run(ctx, a.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w (stderr: %s)", err, truncate(string(errb), 512))
	}
	// pdftotext separates pages with a form feed
	raw := strings.Split(string(out), "\f")
	pages := make(PageText, 0, len(raw))
	for _, p := range raw {
		p = Normalize(p)
		if p != "" {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

// pdfOCR rasterizes each page and runs recognition over the images. Used
// when the text layer is missing or too thin to be a digital PDF.
func (a *Acquirer) pdfOCR(ctx context.Context, path string) (PageText, error) {
	tmpDir, err := os.MkdirTemp("", "inv-pp-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			a.logger.Warn("ocr.pdf_ocr.cleanup_failed", "dir", tmpDir, "error", rerr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := a.runner.Run(ctx, a.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", a.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (stderr: %s)", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if a.cfg.MaxPages > 0 && len(matches) > a.cfg.MaxPages {
		matches = matches[:a.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}

	pages := make(PageText, 0, len(matches))
	for _, img := range matches {
		txt, terr := a.tesseract(ctx, img)
		if terr != nil {
			a.logger.Warn("ocr.pdf_ocr.page_failed", "image", img, "error", terr)
			continue
		}
		txt = Normalize(txt)
		if txt != "" {
			pages = append(pages, txt)
		}
	}
	return pages, nil
}

// tesseract runs the external recognizer on a single image and returns its
// raw text.
func (a *Acquirer) tesseract(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := a.runner.Run(ctx, a.cfg.Tesseract, path, "stdout", "-l", a.cfg.TesseractLang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
