package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	OCR     OCRConfig
	Extract ExtractConfig
	Batch   BatchConfig
	Tax     TaxConfig
}

// OCRConfig holds text-acquisition configuration
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
	MinTextLen    int
	MinImageDim   int
}

// ExtractConfig holds field-extraction configuration
type ExtractConfig struct {
	MinTextLen int
}

// BatchConfig holds directory-processing configuration
type BatchConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// TaxConfig holds tax-engine configuration
type TaxConfig struct {
	RatesPath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 10),
			MinTextLen:    getEnvAsInt("OCR_MIN_TEXT_LEN", 1000),
			MinImageDim:   getEnvAsInt("OCR_MIN_IMAGE_DIM", 1000),
		},
		Extract: ExtractConfig{
			MinTextLen: getEnvAsInt("EXTRACT_MIN_TEXT_LEN", 10),
		},
		Batch: BatchConfig{
			Workers:    getEnvAsInt("BATCH_WORKERS", 4),
			QueueSize:  getEnvAsInt("BATCH_QUEUE_SIZE", 64),
			JobTimeout: getEnvAsDuration("BATCH_JOB_TIMEOUT", 2*time.Minute),
		},
		Tax: TaxConfig{
			RatesPath: getEnv("TAX_RATES_PATH", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Batch.Workers <= 0 {
		return NewAppError(CodeInvalidConfig, "BATCH_WORKERS must be positive", ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError(CodeInvalidConfig, "OCR_DPI must be positive", ErrInvalidInput)
	}
	return nil
}
