package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Store    StoreConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Batch    BatchConfig
}

// DatabaseConfig holds record-store configuration. An empty DSN selects
// the embedded sqlite store.
type DatabaseConfig struct {
	DSN             string
	SQLitePath      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// StoreConfig holds remote hierarchical store configuration.
type StoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// OCRConfig holds OCR-related configuration.
type OCRConfig struct {
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	Timeout       time.Duration
}

// LLMConfig holds language-model provider configuration.
type LLMConfig struct {
	BaseURL        string
	Model          string
	APIKey         string
	Temperature    float32
	Timeout        time.Duration
	MaxPromptChars int
}

// PipelineConfig holds the per-file processing thresholds. The exact
// values are empirically chosen and tunable; only their existence as
// gates is load-bearing.
type PipelineConfig struct {
	MaxFileBytes      int64
	MinTextChars      int     // below this, acquisition routes to OCR
	MixedPageMinChars int     // per-page floor before a page gets OCR backup
	MaxPagesPerChunk  int     // documents beyond this are split
	MinConfidence     float32 // below this, extraction routes to manual entry
	SimilarityFloor   float64 // duplicate candidates below this are ignored
}

// BatchConfig bounds batch-level concurrency.
type BatchConfig struct {
	MaxInFlight  int
	StaggerDelay time.Duration
	TaskTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "./fleetdocs.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Store: StoreConfig{
			Endpoint:  getEnv("STORE_ENDPOINT", ""),
			AccessKey: getEnv("STORE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORE_SECRET_KEY", ""),
			Bucket:    getEnv("STORE_BUCKET", "fleetdocs"),
			UseSSL:    getEnvAsBool("STORE_USE_SSL", false),
		},
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Temperature:    getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:        getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxPromptChars: getEnvAsInt("LLM_MAX_PROMPT_CHARS", 4000),
		},
		Pipeline: PipelineConfig{
			MaxFileBytes:      getEnvAsInt64("MAX_FILE_BYTES", 25<<20),
			MinTextChars:      getEnvAsInt("MIN_TEXT_CHARS", 100),
			MixedPageMinChars: getEnvAsInt("MIXED_PAGE_MIN_CHARS", 32),
			MaxPagesPerChunk:  getEnvAsInt("MAX_PAGES_PER_CHUNK", 15),
			MinConfidence:     getEnvAsFloat32("MIN_CONFIDENCE", 0.4),
			SimilarityFloor:   getEnvAsFloat64("SIMILARITY_FLOOR", 0.85),
		},
		Batch: BatchConfig{
			MaxInFlight:  getEnvAsInt("BATCH_MAX_IN_FLIGHT", 3),
			StaggerDelay: getEnvAsDuration("BATCH_STAGGER_DELAY", 2*time.Second),
			TaskTimeout:  getEnvAsDuration("BATCH_TASK_TIMEOUT", 5*time.Minute),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Store.Endpoint == "" {
		return NewAppError("CONFIG_ERROR", "STORE_ENDPOINT is required", ErrInvalidInput)
	}
	if c.Batch.MaxInFlight <= 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_MAX_IN_FLIGHT must be positive", ErrInvalidInput)
	}
	return nil
}
