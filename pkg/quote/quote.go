// Package quote defines the canonical quote shapes every rate provider
// normalizes into, plus validation helpers shared by the aggregation layer.
package quote

import (
	"fmt"
	"math"
	"time"
)

// ForexQuote is a normalized foreign-exchange quote: every rate maps a target
// currency code to units of that currency per one unit of Base.
type ForexQuote struct {
	Rates     map[string]float64 `json:"rates"`
	Base      string             `json:"base"`
	Provider  string             `json:"provider"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Rate returns the rate for the given symbol, or an error if the symbol is
// missing or the value is not a positive finite number.
func (q *ForexQuote) Rate(symbol string) (float64, error) {
	rate, ok := q.Rates[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s", ErrInvalidRate, symbol)
	}
	if !IsValidRate(rate) {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidRate, symbol, rate)
	}
	return rate, nil
}

// ArsQuote is a normalized ARS/USD quote. Tarjeta and Cripto are mandatory;
// the remaining reference rates depend on provider coverage.
type ArsQuote struct {
	Tarjeta   float64   `json:"tarjeta"`
	Cripto    float64   `json:"cripto"`
	Blue      *float64  `json:"blue,omitempty"`
	Mep       *float64  `json:"mep,omitempty"`
	Ccl       *float64  `json:"ccl,omitempty"`
	Provider  string    `json:"provider"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsValidRate reports whether v can be used as an exchange rate.
func IsValidRate(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
