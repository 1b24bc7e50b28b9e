package openai

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/quote-optimizer/internal/llm"
)

// Config for the OpenAI client.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
	// RequestsPerSecond throttles calls across all goroutines sharing the client; <= 0 disables it.
	RequestsPerSecond float64
	// StrictSchema disables the lenient second pass that drops invalid optional fields.
	StrictSchema bool
}

type Client struct {
	cfg       Config
	http      *http.Client
	limiter   *rate.Limiter
	schema    map[string]any
	validator *llm.SchemaValidator
	logger    *slog.Logger
}

var _ llm.FieldExtractor = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	schema := llm.BuildQuoteJSONSchema()
	validator, err := llm.NewSchemaValidator(schema)
	if err != nil {
		return nil, fmt.Errorf("quote schema: %w", err)
	}
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   limiter,
		schema:    schema,
		validator: validator,
		logger:    logger,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }
