package webapi

import (
	"context"

	"github.com/alejomarin/conversor/pkg/service/convert"
	"github.com/gofiber/fiber/v2"
)

// Converter runs the conversion pipeline.
type Converter interface {
	Convert(ctx context.Context, amount float64, from string) convert.Result
}

// ConvertRequest is the POST /api/convert body.
type ConvertRequest struct {
	Amount *float64 `json:"amount" validate:"required"`
	From   string   `json:"from" validate:"required"`
}

// PostConvert converts an amount to USD and both ARS reference rates. The
// response is always 200: the result contract carries its own ok/error
// fields, so rate failures are data, not transport errors.
func PostConvert(converter Converter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := BindAndValidate[ConvertRequest](c)
		if err != nil {
			return nil // error response already written by the helper
		}
		return c.JSON(converter.Convert(c.Context(), *req.Amount, req.From))
	}
}
