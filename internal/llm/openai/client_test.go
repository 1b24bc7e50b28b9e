package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quote-optimizer/internal/llm"
)

func chatServer(t *testing.T, status int, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"overloaded"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string, strict bool) *Client {
	t.Helper()
	c, err := NewClient(Config{APIKey: "test-key", BaseURL: url, Model: "test-model", RequestsPerSecond: 100, StrictSchema: strict}, nil)
	require.NoError(t, err)
	return c
}

func TestExtractFields_OK(t *testing.T) {
	t.Parallel()
	var body map[string]any
	content := `{"vendor_name":"Acme","currency":"usd","total":"50.00","items":[{"name":"Widget","qty":"10","price":"$5.00","total":50}]}`
	srv := chatServer(t, http.StatusOK, content, &body)

	got, raw, err := newTestClient(t, srv.URL, false).ExtractFields(context.Background(), llm.ExtractRequest{
		DocumentID: "d1",
		Text:       "Widget | 10 | 5.00 | 50.00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "test-model", body["model"])
	assert.Equal(t, "Acme", got.Vendor)
	assert.Equal(t, "USD", got.CurrencyCode)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 10.0, *got.Items[0].Quantity)
	assert.Equal(t, 5.0, *got.Items[0].UnitPrice)
	assert.Equal(t, 50.0, *got.QuoteTotal)
}

func TestExtractFields_LenientVsStrict(t *testing.T) {
	t.Parallel()
	content := `{"vendor":"Acme","confidence":1.7,"items":[{"description":"Widget","quantity":1}]}`
	srv := chatServer(t, http.StatusOK, content, nil)

	got, _, err := newTestClient(t, srv.URL, false).ExtractFields(context.Background(), llm.ExtractRequest{})
	require.NoError(t, err)
	assert.Zero(t, got.Confidence)
	assert.Len(t, got.Items, 1)

	_, _, err = newTestClient(t, srv.URL, true).ExtractFields(context.Background(), llm.ExtractRequest{})
	assert.ErrorContains(t, err, "schema validation failed")
}

func TestExtractFields_StatusError(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, http.StatusServiceUnavailable, "", nil)
	_, _, err := newTestClient(t, srv.URL, false).ExtractFields(context.Background(), llm.ExtractRequest{})
	require.Error(t, err)
	var se *llm.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
	assert.True(t, se.Temporary())
}

func TestExtractFields_NoChoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(srv.Close)
	_, _, err := newTestClient(t, srv.URL, false).ExtractFields(context.Background(), llm.ExtractRequest{})
	assert.ErrorContains(t, err, "no choices")
}
