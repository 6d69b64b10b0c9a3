// docextract extracts structured invoice fields from a document or a
// directory of documents and prints them as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/budgidesk/invoice-engine/constants"
	"github.com/budgidesk/invoice-engine/internal/async"
	"github.com/budgidesk/invoice-engine/internal/common"
	"github.com/budgidesk/invoice-engine/internal/fields"
	"github.com/budgidesk/invoice-engine/internal/ocr"
	"github.com/budgidesk/invoice-engine/internal/pipeline"
)

func main() {
	var (
		file    = flag.String("file", "", "single document to extract")
		dir     = flag.String("dir", "", "directory of documents to extract")
		workers = flag.Int("workers", 0, "worker count for directory mode (default from env)")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if (*file == "") == (*dir == "") {
		fmt.Fprintln(os.Stderr, "usage: docextract -file <path> | -dir <path>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	acq := ocr.NewAcquirer(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		MinTextLen:    cfg.OCR.MinTextLen,
		MinImageDim:   cfg.OCR.MinImageDim,
	}, logger)

	p := pipeline.NewPipeline(acq, pipeline.Config{
		MinTextLen: cfg.Extract.MinTextLen,
		Fields:     fields.DefaultConfig(),
	}, logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *file != "" {
		res, err := p.ProcessFile(ctx, *file)
		if err != nil {
			logger.Error("extraction failed", "path", *file, "error", err)
			os.Exit(1)
		}
		if err := enc.Encode(res); err != nil {
			logger.Error("encode result", "error", err)
			os.Exit(1)
		}
		return
	}

	if *workers <= 0 {
		*workers = cfg.Batch.Workers
	}
	if err := runDir(ctx, p, logger, cfg, *dir, *workers, enc); err != nil {
		logger.Error("batch extraction failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
}

type batchResult struct {
	File   string          `json:"file"`
	Error  string          `json:"error,omitempty"`
	Result pipeline.Result `json:"result"`
}

func runDir(ctx context.Context, p *pipeline.Pipeline, logger *slog.Logger, cfg *common.Config, dir string, workers int, enc *json.Encoder) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	var mu sync.Mutex
	q := async.NewExtractQueue(p, logger,
		async.WithWorkers(workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithJobTimeout(cfg.Batch.JobTimeout),
		async.WithSink(func(job async.Job, res pipeline.Result, err error) {
			out := batchResult{File: job.Path, Result: res}
			if err != nil {
				out.Error = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			if encErr := enc.Encode(out); encErr != nil {
				logger.Error("encode result", "path", job.Path, "error", encErr)
			}
		}),
	)

	queued := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(e.Name()))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			logger.Warn("skipping unsupported file", "name", e.Name(), "ext", ext)
			continue
		}
		job := async.Job{
			Path:        filepath.Join(dir, e.Name()),
			SubmittedAt: time.Now(),
			TraceID:     uuid.New(),
		}
		if err := q.Enqueue(ctx, job); err != nil {
			logger.Error("enqueue failed", "path", job.Path, "error", err)
			continue
		}
		queued++
	}

	q.Shutdown(ctx)
	logger.Info("batch complete", "dir", dir, "queued", queued)
	return nil
}
