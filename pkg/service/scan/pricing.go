package scan

import (
	"math"

	"github.com/alejomarin/conversor/pkg/openai"
)

// Price is the vendor list price in USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// PriceTable maps model names to their token prices. Models not in the table
// produce a null cost estimate, never a failure.
type PriceTable map[string]Price

// DefaultPriceTable covers the models the scanner is expected to run with.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		"gpt-4o-mini":            {Input: 0.15, Output: 0.60},
		"gpt-4o":                 {Input: 2.50, Output: 10.00},
		"gpt-4o-mini-2024-07-18": {Input: 0.15, Output: 0.60},
	}
}

// Estimate computes the estimated cost in USD, rounded to 4 decimal places.
// Missing usage or an unknown model yields nil.
func (p PriceTable) Estimate(usage *openai.Usage, model string) *float64 {
	if usage == nil || usage.PromptTokens == 0 || usage.CompletionTokens == 0 {
		return nil
	}
	price, ok := p[model]
	if !ok {
		return nil
	}

	cost := (float64(usage.PromptTokens)*price.Input + float64(usage.CompletionTokens)*price.Output) / 1_000_000
	cost = math.Round(cost*10_000) / 10_000
	return &cost
}
