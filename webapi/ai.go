package webapi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/alejomarin/conversor/pkg/openai"
	"github.com/alejomarin/conversor/pkg/service/scan"
	"github.com/gofiber/fiber/v2"
)

// userKeyHeader carries the caller's own OpenAI API key. The service never
// holds a key of its own.
const userKeyHeader = "x-user-openai-key"

// Scanner runs one orchestrated model conversation.
type Scanner interface {
	Run(ctx context.Context, apiKey string, req *openai.ChatRequest) (*scan.RunResult, error)
}

// PostOpenAI proxies a chat-completions request through the tool loop. The
// terminal model response is returned augmented with the estimated cost and
// the model name. Upstream errors keep their original status and body so
// clients see the vendor's own error payload.
func PostOpenAI(scanner Scanner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := c.Get(userKeyHeader)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "OpenAI API key is required",
			})
		}

		var req openai.ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		}
		if req.Model == "" || len(req.Messages) == 0 {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", "model and messages are required")
		}

		result, err := scanner.Run(c.Context(), apiKey, &req)
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(apiErr.Status).Send(apiErr.Body)
			}
			if errors.Is(err, openai.ErrTimeout) {
				return ErrorResponseJSON(c, fiber.StatusGatewayTimeout, "Model request timed out", err.Error())
			}
			return ErrorResponseJSON(c, fiber.StatusBadGateway, "Model request failed", err.Error())
		}

		// Augment the upstream body in place; a non-object body is passed
		// through untouched.
		var payload map[string]any
		if err := json.Unmarshal(result.Body, &payload); err != nil {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(result.Body)
		}
		payload["estimatedCost"] = result.EstimatedCost
		payload["model"] = result.Model
		return c.JSON(payload)
	}
}
