package ocr

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/budgidesk/invoice-engine/constants"
)

// stubRunner scripts the external binaries per command name.
type stubRunner struct {
	pdftotextOut string
	pdftotextErr error

	pdftoppmErr   error
	pdftoppmPages int // pngs to fabricate under the prefix arg

	tesseractOut string
	tesseractErr error

	calls []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, name)
	switch {
	case strings.Contains(name, "pdftotext"):
		return []byte(s.pdftotextOut), nil, s.pdftotextErr
	case strings.Contains(name, "pdftoppm"):
		if s.pdftoppmErr != nil {
			return nil, []byte("boom"), s.pdftoppmErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= s.pdftoppmPages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case strings.Contains(name, "tesseract"):
		if s.tesseractErr != nil {
			return nil, []byte("boom"), s.tesseractErr
		}
		return []byte(s.tesseractOut), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %q", name)
}

func newTestAcquirer(r Runner) *Acquirer {
	a := NewAcquirer(Config{}, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	a.runner = r
	return a
}

func TestAcquirePDFTextLayer(t *testing.T) {
	stub := &stubRunner{pdftotextOut: "ACME Ltd\nTotal: 123.00\f Page two content here"}
	a := newTestAcquirer(stub)

	pages, method := a.Acquire(context.Background(), "in.pdf", constants.PDF)
	if method != MethodPDFText {
		t.Fatalf("method = %q, want %q", method, MethodPDFText)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if !strings.Contains(pages[0], "ACME Ltd") {
		t.Errorf("page 1 = %q", pages[0])
	}
}

func TestAcquirePDFFallsBackToRecognition(t *testing.T) {
	// text layer too thin to be a digital PDF
	stub := &stubRunner{pdftotextOut: "x", pdftoppmPages: 2, tesseractOut: "Scanned Shop\nTotal 9.99"}
	a := newTestAcquirer(stub)

	pages, method := a.Acquire(context.Background(), "in.pdf", constants.PDF)
	if method != MethodPDFOCR {
		t.Fatalf("method = %q, want %q", method, MethodPDFOCR)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
}

func TestAcquirePDFTotalFailureYieldsEmpty(t *testing.T) {
	stub := &stubRunner{pdftotextErr: fmt.Errorf("corrupt"), pdftoppmErr: fmt.Errorf("corrupt")}
	a := newTestAcquirer(stub)

	pages, method := a.Acquire(context.Background(), "in.pdf", constants.PDF)
	if method != MethodNone || len(pages) != 0 {
		t.Fatalf("want empty acquisition, got method=%q pages=%v", method, pages)
	}
}

func TestAcquireImage(t *testing.T) {
	path := writeTestImage(t, 40, 40)
	stub := &stubRunner{tesseractOut: "Corner Cafe\nTotal 4.50"}
	a := newTestAcquirer(stub)

	pages, method := a.Acquire(context.Background(), path, constants.IMAGE)
	if method != MethodImageOCR {
		t.Fatalf("method = %q, want %q", method, MethodImageOCR)
	}
	if len(pages) != 1 || !strings.Contains(pages[0], "Corner Cafe") {
		t.Fatalf("pages = %v", pages)
	}
}

func TestAcquireImageRecognizerUnavailable(t *testing.T) {
	path := writeTestImage(t, 40, 40)
	stub := &stubRunner{tesseractErr: fmt.Errorf("not installed")}
	a := newTestAcquirer(stub)

	pages, method := a.Acquire(context.Background(), path, constants.IMAGE)
	if method != MethodNone || len(pages) != 0 {
		t.Fatalf("want empty acquisition, got method=%q pages=%v", method, pages)
	}
}

func TestAcquireUnsupportedKind(t *testing.T) {
	a := newTestAcquirer(&stubRunner{})
	pages, method := a.Acquire(context.Background(), "in.docx", "DOCX")
	if method != MethodNone || len(pages) != 0 {
		t.Fatalf("want empty acquisition, got method=%q pages=%v", method, pages)
	}
}

func TestPreprocessUpscalesSmallScans(t *testing.T) {
	path := writeTestImage(t, 200, 300)
	a := newTestAcquirer(&stubRunner{})

	out, cleanup, err := a.preprocess(path)
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	defer cleanup()

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open processed: %v", err)
	}
	shorter := img.Bounds().Dx()
	if img.Bounds().Dy() < shorter {
		shorter = img.Bounds().Dy()
	}
	if shorter < a.cfg.MinImageDim {
		t.Errorf("shorter side = %d, want >= %d", shorter, a.cfg.MinImageDim)
	}
}

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save test image: %v", err)
	}
	return path
}
