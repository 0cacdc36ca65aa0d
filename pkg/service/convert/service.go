// Package convert implements the conversion pipeline: bridge the amount to
// USD, then apply the ARS tarjeta and cripto rates. Convert never fails with
// an error value; every outcome is expressed in one stable result contract so
// callers (the HTTP handler and the model tool loop alike) can treat it as a
// total function.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/alejomarin/conversor/pkg/money"
	"github.com/alejomarin/conversor/pkg/quote"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// RateSource is the slice of the rate aggregator the pipeline depends on.
type RateSource interface {
	GetForexQuote(ctx context.Context, base string, symbols []string) (*quote.ForexQuote, error)
	GetArsQuote(ctx context.Context) (*quote.ArsQuote, error)
}

// Providers records which vendors produced the rates behind a result.
type Providers struct {
	Forex     string    `json:"forex"`
	Ars       string    `json:"ars"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Result is the stable conversion contract. Both variants carry the same
// fields: on success OK is true and the amounts are set; on failure OK is
// false, the amounts are null, the provider names read "error" and Error
// holds a human-readable reason.
type Result struct {
	OK         bool      `json:"ok"`
	USD        *float64  `json:"USD"`
	ArsTarjeta *float64  `json:"ARS_tarjeta"`
	ArsCripto  *float64  `json:"ARS_cripto"`
	Providers  Providers `json:"providers"`
	Error      string    `json:"error,omitempty"`
}

// Service runs conversions against a rate source.
type Service struct {
	rates  RateSource
	logger *slog.Logger
}

// New creates a conversion service.
func New(rates RateSource, logger *slog.Logger) *Service {
	return &Service{rates: rates, logger: logger}
}

// Convert converts amount from the given currency to USD and both ARS
// reference rates. Validation failures short-circuit before any network call.
func (s *Service) Convert(ctx context.Context, amount float64, from string) Result {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return s.fail(amount, from, fmt.Sprintf("invalid amount: %v", amount))
	}

	code := strings.ToUpper(strings.TrimSpace(from))
	if !currencyCodeRe.MatchString(code) {
		return s.fail(amount, from, fmt.Sprintf("invalid currency code: %q", from))
	}

	// Bridge to USD. Identity when the amount is already in dollars.
	usdAmount := amount
	forexProvider := "direct"
	if code != "USD" {
		forexQuote, err := s.rates.GetForexQuote(ctx, code, []string{"USD"})
		if err != nil {
			return s.fail(amount, code, fmt.Sprintf("forex quote unavailable: %v", err))
		}
		usdRate, err := forexQuote.Rate("USD")
		if err != nil {
			return s.fail(amount, code, err.Error())
		}
		usdAmount = amount * usdRate
		forexProvider = forexQuote.Provider
	}

	arsQuote, err := s.rates.GetArsQuote(ctx)
	if err != nil {
		return s.fail(amount, code, fmt.Sprintf("ars quote unavailable: %v", err))
	}

	usd := money.Round2(usdAmount)
	tarjeta := money.Round2(usdAmount * arsQuote.Tarjeta)
	cripto := money.Round2(usdAmount * arsQuote.Cripto)

	result := Result{
		OK:         true,
		USD:        &usd,
		ArsTarjeta: &tarjeta,
		ArsCripto:  &cripto,
		Providers: Providers{
			Forex:     forexProvider,
			Ars:       arsQuote.Provider,
			UpdatedAt: arsQuote.UpdatedAt,
		},
	}
	s.logger.Info("conversion done",
		"amount", amount, "from", code, "ok", true,
		"forex", forexProvider, "ars", arsQuote.Provider)
	return result
}

func (s *Service) fail(amount float64, from, reason string) Result {
	s.logger.Info("conversion failed", "amount", amount, "from", from, "ok", false, "error", reason)
	return Result{
		OK: false,
		Providers: Providers{
			Forex:     "error",
			Ars:       "error",
			UpdatedAt: time.Now().UTC(),
		},
		Error: reason,
	}
}
