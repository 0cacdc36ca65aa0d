// Package scan drives the receipt-scanning conversation with the model: it
// forwards the caller's request, executes model-requested tool calls against
// the local rate services, and feeds the results back until the model answers
// directly or the turn budget runs out.
package scan

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejomarin/conversor/pkg/openai"
	"github.com/google/uuid"
)

const (
	// DefaultMaxIterations bounds the number of tool turns per run.
	DefaultMaxIterations = 5
	// DefaultInitialTimeout applies to the first model call, which may carry
	// an image payload.
	DefaultInitialTimeout = 25 * time.Second
	// DefaultFollowupTimeout applies to follow-up and forced-final calls.
	DefaultFollowupTimeout = 15 * time.Second
)

// finalInstruction is appended as a system message when the turn budget is
// exhausted, demanding the terminal JSON answer with tools disabled.
const finalInstruction = "IMPORTANTE: Debes responder ÚNICAMENTE con el JSON final del análisis " +
	"del ticket. NO uses más herramientas. Responde directamente con el JSON según el schema ticket_analysis."

// forcedTemperature keeps the forced-final answer as deterministic as the
// model allows.
const forcedTemperature = 0.1

// Config bounds one orchestration run.
type Config struct {
	MaxIterations   int
	InitialTimeout  time.Duration
	FollowupTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.InitialTimeout <= 0 {
		c.InitialTimeout = DefaultInitialTimeout
	}
	if c.FollowupTimeout <= 0 {
		c.FollowupTimeout = DefaultFollowupTimeout
	}
	return c
}

// RunResult is the terminal outcome of one orchestration run.
type RunResult struct {
	// Body is the raw upstream body of the terminal model response.
	Body []byte
	// Model is the model name the caller requested.
	Model string
	// EstimatedCost is the estimated run cost in USD; nil for unknown models
	// or missing usage data.
	EstimatedCost *float64
}

// Service orchestrates bounded multi-turn scans.
type Service struct {
	client  *openai.Client
	tools   *ToolSet
	pricing PriceTable
	cfg     Config
	logger  *slog.Logger
}

// New creates a scan service.
func New(client *openai.Client, tools *ToolSet, pricing PriceTable, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		client:  client,
		tools:   tools,
		pricing: pricing,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// Run executes one orchestration run on behalf of the caller's API key. The
// transcript lives only for the duration of the call. The run is guaranteed
// to finish within MaxIterations+1 upstream round trips: one initial call,
// tool turns, and at most one forced-final call with tools disabled.
func (s *Service) Run(ctx context.Context, apiKey string, req *openai.ChatRequest) (*RunResult, error) {
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID, "model", req.Model)

	resp, body, err := s.client.ChatCompletion(ctx, apiKey, req, s.cfg.InitialTimeout)
	if err != nil {
		return nil, err
	}

	transcript := append([]openai.Message{}, req.Messages...)

	iterations := 0
	for len(resp.ToolCalls()) > 0 && iterations < s.cfg.MaxIterations {
		iterations++

		if iterations >= s.cfg.MaxIterations {
			logger.Info("turn budget exhausted, forcing final answer", "iterations", iterations)
			resp, body, err = s.forceFinal(ctx, apiKey, req, transcript)
			if err != nil {
				return nil, err
			}
			break
		}

		assistantMsg := resp.Choices[0].Message
		toolCalls := resp.ToolCalls()
		logger.Info("executing tool calls", "iteration", iterations, "count", len(toolCalls))

		transcript = append(transcript, assistantMsg)
		for _, call := range toolCalls {
			transcript = append(transcript, s.tools.Execute(ctx, call))
		}

		followup := *req
		followup.Messages = transcript
		resp, body, err = s.client.ChatCompletion(ctx, apiKey, &followup, s.cfg.FollowupTimeout)
		if err != nil {
			return nil, err
		}
	}

	var usage *openai.Usage
	if resp != nil {
		usage = resp.Usage
	}
	cost := s.pricing.Estimate(usage, req.Model)
	logger.Info("scan run finished", "iterations", iterations, "estimated_cost", cost)

	return &RunResult{
		Body:          body,
		Model:         req.Model,
		EstimatedCost: cost,
	}, nil
}

// forceFinal issues the terminal call: tools stripped, a closing system
// instruction appended, and a low temperature. Whatever the model answers is
// returned as-is, even if it keeps asking for tools.
func (s *Service) forceFinal(ctx context.Context, apiKey string, req *openai.ChatRequest, transcript []openai.Message) (*openai.ChatResponse, []byte, error) {
	temperature := forcedTemperature
	final := &openai.ChatRequest{
		Model:          req.Model,
		Messages:       append(append([]openai.Message{}, transcript...), openai.TextMessage("system", finalInstruction)),
		ResponseFormat: req.ResponseFormat,
		Temperature:    &temperature,
	}
	return s.client.ChatCompletion(ctx, apiKey, final, s.cfg.FollowupTimeout)
}
