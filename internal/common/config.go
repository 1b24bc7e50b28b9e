package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Engine EngineConfig
	OCR    OCRConfig
	LLM    LLMConfig
	Store  StoreConfig
	Server ServerConfig
	Log    LogConfig
}

// EngineConfig holds the analysis engine knobs
type EngineConfig struct {
	MaxParallel      int
	ExtractTimeout   time.Duration
	OCRTimeout       time.Duration
	ItemSimilarity   float64
	VendorSimilarity float64
	AmbiguityEpsilon float64
	MissingPenalty   float64
	BaseCurrency     string
	Extractor        string // heuristic | llm | auto
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	HeicConverter    string
	TessdataDir      string
	ArtifactCacheDir string
	Lang             string
	TSVConfidence    bool
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model             string
	APIKey            string
	BaseURL           string
	Temperature       float32
	Timeout           time.Duration
	RequestsPerSecond float64
}

// StoreConfig holds result-store configuration
type StoreConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds daemon configuration
type ServerConfig struct {
	GRPCAddr     string
	QueueWorkers int
	QueueSize    int
	JobTimeout   time.Duration
	// WatchDir, when set, is an inbox directory whose new files are analyzed as batches.
	WatchDir      string
	WatchDebounce time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string // json | text
}

// Extractor selection values.
const (
	ExtractorHeuristic = "heuristic"
	ExtractorLLM       = "llm"
	ExtractorAuto      = "auto"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxParallel:      getEnvAsInt("QUOTE_MAX_PARALLEL", 4),
			ExtractTimeout:   getEnvAsDuration("QUOTE_EXTRACT_TIMEOUT", 45*time.Second),
			OCRTimeout:       getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
			ItemSimilarity:   getEnvAsFloat64("QUOTE_ITEM_SIMILARITY", 0.6),
			VendorSimilarity: getEnvAsFloat64("QUOTE_VENDOR_SIMILARITY", 0.85),
			AmbiguityEpsilon: getEnvAsFloat64("QUOTE_AMBIGUITY_EPSILON", 0.05),
			MissingPenalty:   getEnvAsFloat64("QUOTE_MISSING_PENALTY", 0.25),
			BaseCurrency:     strings.ToUpper(getEnv("QUOTE_BASE_CURRENCY", "USD")),
			Extractor:        strings.ToLower(getEnv("QUOTE_EXTRACTOR", ExtractorHeuristic)),
		},
		OCR: OCRConfig{
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			Lang:             getEnv("OCR_LANG", "eng"),
			TSVConfidence:    getEnvAsBool("OCR_TSV_CONFIDENCE", true),
		},
		LLM: LLMConfig{
			Model:             getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			BaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:       getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:           getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			RequestsPerSecond: getEnvAsFloat64("OPENAI_RPS", 2),
		},
		Store: StoreConfig{
			DSN:              getEnv("STORE_DSN", ""),
			MaxConns:         getEnvAsInt32("STORE_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("STORE_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("STORE_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("STORE_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("STORE_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("STORE_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr:      getEnv("GRPC_ADDR", ":8080"),
			QueueWorkers:  getEnvAsInt("QUEUE_WORKERS", 4),
			QueueSize:     getEnvAsInt("QUEUE_SIZE", 256),
			JobTimeout:    getEnvAsDuration("QUEUE_JOB_TIMEOUT", 5*time.Minute),
			WatchDir:      getEnv("QUOTE_WATCH_DIR", ""),
			WatchDebounce: getEnvAsDuration("QUOTE_WATCH_DEBOUNCE", 5*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
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
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// Validate checks the engine settings and the settings the chosen extractor needs.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("QUOTE_ITEM_SIMILARITY", c.Engine.ItemSimilarity, UnitInterval).
		Field("QUOTE_VENDOR_SIMILARITY", c.Engine.VendorSimilarity, UnitInterval).
		Field("QUOTE_AMBIGUITY_EPSILON", c.Engine.AmbiguityEpsilon, UnitInterval).
		Field("QUOTE_MISSING_PENALTY", c.Engine.MissingPenalty, NonNegative).
		Field("QUOTE_MAX_PARALLEL", c.Engine.MaxParallel, Positive).
		Field("QUOTE_BASE_CURRENCY", c.Engine.BaseCurrency, CurrencyCode).
		Field("QUOTE_EXTRACTOR", c.Engine.Extractor, OneOf(ExtractorHeuristic, ExtractorLLM, ExtractorAuto))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	if c.Engine.Extractor == ExtractorLLM && c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required when QUOTE_EXTRACTOR=llm", ErrInvalidInput)
	}
	return nil
}

// ValidateServer additionally checks what the daemon needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	v := NewValidator().
		Field("GRPC_ADDR", c.Server.GRPCAddr, Required).
		Field("STORE_DSN", c.Store.DSN, Required)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
