package scan

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alejomarin/conversor/pkg/openai"
	"github.com/alejomarin/conversor/pkg/quote"
	"github.com/alejomarin/conversor/pkg/service/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRates struct {
	arsQuote *quote.ArsQuote
}

func (f *fakeRates) GetForexQuote(_ context.Context, base string, _ []string) (*quote.ForexQuote, error) {
	return &quote.ForexQuote{
		Rates:     map[string]float64{"USD": 0.27},
		Base:      base,
		Provider:  "open.er-api.com",
		UpdatedAt: time.Now(),
	}, nil
}

func (f *fakeRates) GetArsQuote(context.Context) (*quote.ArsQuote, error) {
	if f.arsQuote == nil {
		return nil, quote.ErrProviderExhausted
	}
	return f.arsQuote, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newToolSet() *ToolSet {
	logger := discardLogger()
	rates := &fakeRates{arsQuote: &quote.ArsQuote{
		Tarjeta: 1200, Cripto: 1300, Provider: "criptoya", UpdatedAt: time.Now(),
	}}
	return NewToolSet(rates, convert.New(rates, logger), logger)
}

// fakeModel scripts a sequence of upstream responses and records every
// request body it receives.
type fakeModel struct {
	mu        sync.Mutex
	responses []string
	requests  []map[string]any
	srv       *httptest.Server
}

func newFakeModel(t *testing.T, responses ...string) *fakeModel {
	t.Helper()
	f := &fakeModel{responses: responses}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.requests = append(f.requests, body)

		idx := len(f.requests) - 1
		if idx >= len(f.responses) {
			idx = len(f.responses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.responses[idx]))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeModel) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeModel) request(i int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

func newService(f *fakeModel, cfg Config) *Service {
	logger := discardLogger()
	return New(openai.NewClient(f.srv.URL, logger), newToolSet(), DefaultPriceTable(), cfg, logger)
}

const finalAnswer = `{
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"total\": 45}"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 1000000, "completion_tokens": 1000000, "total_tokens": 2000000}
}`

const toolCallAnswer = `{
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "message": {
		"role": "assistant",
		"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "convert_currency", "arguments": "{\"amount\": 100, \"fromCurrency\": \"USD\"}"}}]
	}, "finish_reason": "tool_calls"}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 10, "total_tokens": 20}
}`

func scanRequest() *openai.ChatRequest {
	return &openai.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []openai.Message{
			openai.TextMessage("system", "lee el ticket"),
			openai.TextMessage("user", "analiza esta imagen"),
		},
		Tools:          json.RawMessage(`[{"type": "function", "function": {"name": "convert_currency"}}]`),
		ResponseFormat: json.RawMessage(`{"type": "json_schema"}`),
	}
}

func TestRun_DirectAnswerIsTerminal(t *testing.T) {
	model := newFakeModel(t, finalAnswer)
	svc := newService(model, Config{})

	result, err := svc.Run(context.Background(), "sk-test", scanRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, model.requestCount())
	assert.Equal(t, "gpt-4o-mini", result.Model)
	require.NotNil(t, result.EstimatedCost)
	assert.InDelta(t, 0.75, *result.EstimatedCost, 1e-9) // 1M in + 1M out at mini prices
	assert.Contains(t, string(result.Body), "total")
}

func TestRun_ExecutesToolCallsAndFeedsResultsBack(t *testing.T) {
	model := newFakeModel(t, toolCallAnswer, finalAnswer)
	svc := newService(model, Config{})

	result, err := svc.Run(context.Background(), "sk-test", scanRequest())
	require.NoError(t, err)
	require.Equal(t, 2, model.requestCount())

	// The follow-up transcript must contain the assistant's tool request plus
	// the tool result message.
	followup := model.request(1)
	messages := followup["messages"].([]any)
	require.Len(t, messages, 4)

	toolMsg := messages[3].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_1", toolMsg["tool_call_id"])
	assert.Equal(t, "convert_currency", toolMsg["name"])
	assert.Contains(t, toolMsg["content"], `"ok":true`)
	assert.Contains(t, toolMsg["content"], "120000")

	assert.Contains(t, string(result.Body), "total")
}

func TestRun_TurnBudgetForcesFinalAnswer(t *testing.T) {
	// The model keeps asking for tools forever; the loop must still finish in
	// maxIterations+1 round trips.
	model := newFakeModel(t, toolCallAnswer)
	svc := newService(model, Config{MaxIterations: 3})

	_, err := svc.Run(context.Background(), "sk-test", scanRequest())
	require.NoError(t, err)
	assert.Equal(t, 4, model.requestCount())

	// The forced-final request strips tools, pins the temperature, and closes
	// with the direct-answer instruction.
	final := model.request(3)
	assert.NotContains(t, final, "tools")
	assert.InDelta(t, 0.1, final["temperature"].(float64), 1e-9)

	messages := final["messages"].([]any)
	last := messages[len(messages)-1].(map[string]any)
	assert.Equal(t, "system", last["role"])
	assert.Contains(t, last["content"], "NO uses más herramientas")
}

func TestRun_UnknownToolYieldsErrorResult(t *testing.T) {
	unknownTool := `{
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {
			"role": "assistant",
			"tool_calls": [{"id": "call_9", "type": "function", "function": {"name": "frobnicate", "arguments": "{}"}}]
		}, "finish_reason": "tool_calls"}]
	}`
	model := newFakeModel(t, unknownTool, finalAnswer)
	svc := newService(model, Config{})

	_, err := svc.Run(context.Background(), "sk-test", scanRequest())
	require.NoError(t, err)
	require.Equal(t, 2, model.requestCount())

	messages := model.request(1)["messages"].([]any)
	toolMsg := messages[len(messages)-1].(map[string]any)
	assert.Contains(t, toolMsg["content"], "unknown tool: frobnicate")
}

func TestRun_UpstreamErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	t.Cleanup(srv.Close)

	logger := discardLogger()
	svc := New(openai.NewClient(srv.URL, logger), newToolSet(), DefaultPriceTable(), Config{}, logger)

	_, err := svc.Run(context.Background(), "sk-bad", scanRequest())
	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, string(apiErr.Body), "bad key")
}

func TestRun_TimeoutIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(finalAnswer))
	}))
	t.Cleanup(srv.Close)

	logger := discardLogger()
	svc := New(openai.NewClient(srv.URL, logger), newToolSet(), DefaultPriceTable(),
		Config{InitialTimeout: 50 * time.Millisecond}, logger)

	_, err := svc.Run(context.Background(), "sk-test", scanRequest())
	require.True(t, errors.Is(err, openai.ErrTimeout), "got %v", err)
}

func TestPriceTable_Estimate(t *testing.T) {
	table := DefaultPriceTable()

	cost := table.Estimate(&openai.Usage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}, "gpt-4o")
	require.NotNil(t, cost)
	assert.InDelta(t, 12.50, *cost, 1e-9)

	assert.Nil(t, table.Estimate(&openai.Usage{PromptTokens: 10, CompletionTokens: 10}, "some-future-model"))
	assert.Nil(t, table.Estimate(nil, "gpt-4o"))
	assert.Nil(t, table.Estimate(&openai.Usage{PromptTokens: 10}, "gpt-4o"))
}
