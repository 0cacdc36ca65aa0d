package webapi

import (
	"context"
	"regexp"
	"strings"

	"github.com/alejomarin/conversor/pkg/quote"
	"github.com/gofiber/fiber/v2"
)

var symbolRe = regexp.MustCompile(`^[A-Za-z]{3}$`)

// RateService is the slice of the rate aggregator the handlers need.
type RateService interface {
	GetForexQuote(ctx context.Context, base string, symbols []string) (*quote.ForexQuote, error)
	GetArsQuote(ctx context.Context) (*quote.ArsQuote, error)
}

// GetForexRates returns a forex quote for ?base=X&symbols=A,B. Base defaults
// to USD and symbols to PEN, matching the service's main use case.
func GetForexRates(rates RateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		base := strings.ToUpper(strings.TrimSpace(c.Query("base", "USD")))
		if !symbolRe.MatchString(base) {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid base currency", base)
		}

		var symbols []string
		for _, s := range strings.Split(c.Query("symbols", "PEN"), ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			if !symbolRe.MatchString(s) {
				return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid symbol", s)
			}
			symbols = append(symbols, s)
		}
		if len(symbols) == 0 {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "No symbols requested", nil)
		}

		q, err := rates.GetForexQuote(c.Context(), base, symbols)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Forex rates unavailable", err.Error())
		}
		return c.JSON(q)
	}
}

// GetArsRates returns the current ARS/USD reference rates.
func GetArsRates(rates RateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := rates.GetArsQuote(c.Context())
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "ARS rates unavailable", err.Error())
		}
		return c.JSON(q)
	}
}
