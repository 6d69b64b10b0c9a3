package ocr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// preprocess prepares a scanned image for recognition: upscale small scans,
// drop color, push contrast and sharpen edges. None of it changes what the
// document says, only how legible it is to the recognizer.
//
// Returns the path of the processed PNG and a cleanup func for its temp dir.
func (a *Acquirer) preprocess(path string) (string, func(), error) {
	src, err := imaging.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	shorter := w
	if h < w {
		shorter = h
	}
	if shorter > 0 && shorter < a.cfg.MinImageDim {
		scale := float64(a.cfg.MinImageDim) / float64(shorter)
		src = imaging.Resize(src, int(float64(w)*scale), 0, imaging.Lanczos)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)

	tmpDir, err := os.MkdirTemp("", "inv-img-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	out := filepath.Join(tmpDir, "page.png")
	if err := imaging.Save(img, out); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("save processed image: %w", err)
	}
	return out, cleanup, nil
}
