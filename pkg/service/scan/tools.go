package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alejomarin/conversor/pkg/detect"
	"github.com/alejomarin/conversor/pkg/money"
	"github.com/alejomarin/conversor/pkg/openai"
	"github.com/alejomarin/conversor/pkg/service/convert"
)

// Handler executes one tool against its JSON-encoded arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// ToolSet is the closed dispatch table for model-requested tool calls. Names
// outside the table yield a structured error result, never a crash; the model
// is expected to read the error and correct itself on its next turn.
type ToolSet struct {
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewToolSet wires the five receipt-scanning tools to the conversion pipeline
// and rate aggregator.
func NewToolSet(rates convert.RateSource, converter *convert.Service, logger *slog.Logger) *ToolSet {
	t := &ToolSet{logger: logger}
	t.handlers = map[string]Handler{
		"detect_currency": func(_ context.Context, args json.RawMessage) (any, error) {
			var params struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("bad detect_currency arguments: %w", err)
			}
			return detect.Detect(params.Text), nil
		},
		"get_forex_rates": func(ctx context.Context, args json.RawMessage) (any, error) {
			var params struct {
				Base    string   `json:"base"`
				Symbols []string `json:"symbols"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("bad get_forex_rates arguments: %w", err)
			}
			return rates.GetForexQuote(ctx, params.Base, params.Symbols)
		},
		"get_ars_rates": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return rates.GetArsQuote(ctx)
		},
		"convert_currency": func(ctx context.Context, args json.RawMessage) (any, error) {
			var params struct {
				Amount       float64 `json:"amount"`
				FromCurrency string  `json:"fromCurrency"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("bad convert_currency arguments: %w", err)
			}
			// The result contract carries its own ok/error fields.
			return converter.Convert(ctx, params.Amount, params.FromCurrency), nil
		},
		"format_currency": func(_ context.Context, args json.RawMessage) (any, error) {
			var params struct {
				Value    float64 `json:"value"`
				Currency string  `json:"currency"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("bad format_currency arguments: %w", err)
			}
			return money.Format(params.Value, params.Currency), nil
		},
	}
	return t
}

// Execute runs one tool call and returns the tool message to append to the
// transcript. Failures of any kind become an {"error": ...} payload.
func (t *ToolSet) Execute(ctx context.Context, call openai.ToolCall) openai.Message {
	name := call.Function.Name
	result := t.run(ctx, name, json.RawMessage(call.Function.Arguments))

	content, err := json.Marshal(result)
	if err != nil {
		t.logger.Error("tool result not serializable", "tool", name, "error", err)
		content = []byte(`{"error":"tool result not serializable"}`)
	}
	return openai.ToolMessage(call.ID, name, string(content))
}

func (t *ToolSet) run(ctx context.Context, name string, args json.RawMessage) any {
	handler, ok := t.handlers[name]
	if !ok {
		t.logger.Warn("unknown tool requested", "tool", name)
		return map[string]string{"error": fmt.Sprintf("unknown tool: %s", name)}
	}

	result, err := handler(ctx, args)
	if err != nil {
		t.logger.Warn("tool execution failed", "tool", name, "error", err)
		return map[string]string{"error": fmt.Sprintf("tool execution failed: %v", err)}
	}
	return result
}
