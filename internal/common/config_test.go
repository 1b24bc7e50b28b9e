package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("QUOTE_MAX_PARALLEL", "")
	t.Setenv("QUOTE_BASE_CURRENCY", "")
	t.Setenv("QUOTE_EXTRACTOR", "")
	t.Setenv("QUOTE_EXTRACT_TIMEOUT", "")
	t.Setenv("OCR_TIMEOUT", "")
	t.Setenv("QUOTE_WATCH_DEBOUNCE", "")
	t.Setenv("GRPC_ADDR", "")

	cfg := LoadConfig()
	assert.Equal(t, 4, cfg.Engine.MaxParallel)
	assert.Equal(t, 45*time.Second, cfg.Engine.ExtractTimeout)
	assert.Equal(t, time.Minute, cfg.Engine.OCRTimeout)
	assert.Equal(t, "USD", cfg.Engine.BaseCurrency)
	assert.Equal(t, ExtractorHeuristic, cfg.Engine.Extractor)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, 5*time.Second, cfg.Server.WatchDebounce)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("QUOTE_MAX_PARALLEL", "9")
	t.Setenv("QUOTE_EXTRACT_TIMEOUT", "3s")
	t.Setenv("OCR_TIMEOUT", "90s")
	t.Setenv("QUOTE_ITEM_SIMILARITY", "0.7")
	t.Setenv("QUOTE_BASE_CURRENCY", "eur")
	t.Setenv("QUOTE_EXTRACTOR", "AUTO")
	t.Setenv("OCR_TSV_CONFIDENCE", "false")
	t.Setenv("STORE_MAX_CONNS", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, 9, cfg.Engine.MaxParallel)
	assert.Equal(t, 3*time.Second, cfg.Engine.ExtractTimeout)
	assert.Equal(t, 90*time.Second, cfg.Engine.OCRTimeout)
	assert.InDelta(t, 0.7, cfg.Engine.ItemSimilarity, 1e-9)
	assert.Equal(t, "EUR", cfg.Engine.BaseCurrency)
	assert.Equal(t, ExtractorAuto, cfg.Engine.Extractor)
	assert.False(t, cfg.OCR.TSVConfidence)
	assert.EqualValues(t, 10, cfg.Store.MaxConns, "unparsable values fall back to the default")
}

func validConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxParallel:      2,
			ItemSimilarity:   0.6,
			VendorSimilarity: 0.85,
			AmbiguityEpsilon: 0.05,
			MissingPenalty:   0.25,
			BaseCurrency:     "USD",
			Extractor:        ExtractorHeuristic,
		},
		Server: ServerConfig{GRPCAddr: ":0"},
		Store:  StoreConfig{DSN: "sqlite::memory:"},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"similarity above one", func(c *Config) { c.Engine.ItemSimilarity = 1.5 }, "QUOTE_ITEM_SIMILARITY"},
		{"negative penalty", func(c *Config) { c.Engine.MissingPenalty = -1 }, "QUOTE_MISSING_PENALTY"},
		{"zero parallelism", func(c *Config) { c.Engine.MaxParallel = 0 }, "QUOTE_MAX_PARALLEL"},
		{"lowercase currency", func(c *Config) { c.Engine.BaseCurrency = "usd" }, "QUOTE_BASE_CURRENCY"},
		{"unknown extractor", func(c *Config) { c.Engine.Extractor = "magic" }, "QUOTE_EXTRACTOR"},
		{"llm without key", func(c *Config) { c.Engine.Extractor = ExtractorLLM }, "OPENAI_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateServer(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.ValidateServer())

	cfg.Store.DSN = " "
	cfg.Server.GRPCAddr = ""
	err := cfg.ValidateServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DSN")
	assert.Contains(t, err.Error(), "GRPC_ADDR")
}

func TestToStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"unsupported rule", &entity.UnsupportedRuleError{RuleID: "r1", Kind: "x"}, codes.InvalidArgument},
		{"invalid input", fmt.Errorf("run: %w", ErrInvalidInput), codes.InvalidArgument},
		{"not found", fmt.Errorf("get: %w", ErrNotFound), codes.NotFound},
		{"inconsistent matrix", &entity.InconsistentMatrixError{Reason: "empty row"}, codes.Internal},
		{"cancelled", context.Canceled, codes.Canceled},
		{"already a status", status.Error(codes.Unavailable, "down"), codes.Unavailable},
		{"anything else", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, status.Code(ToStatus(tt.err)))
		})
	}
	assert.NoError(t, ToStatus(nil))
}

func TestLoggerFrom(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json"}, &buf)

	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithDocumentID(ctx, "doc-1")
	LoggerFrom(ctx, logger).Debug("pipeline.document.start")

	out := buf.String()
	assert.Contains(t, out, `"run_id":"run-1"`)
	assert.Contains(t, out, `"document_id":"doc-1"`)
	assert.NotContains(t, out, "req_id")
}
