// Package provider defines the adapter interfaces for upstream rate vendors.
// Each adapter absorbs its vendor's schema quirks and hands the aggregator a
// canonical quote; failure is always an error return, never a panic.
package provider

import (
	"context"

	"github.com/alejomarin/conversor/pkg/quote"
)

// Forex fetches foreign-exchange quotes for a base currency.
type Forex interface {
	// Name identifies the vendor in logs and quote metadata.
	Name() string

	// FetchQuote fetches rates for base against the requested symbols. The
	// returned quote carries a validated positive finite rate for every
	// requested symbol, or an error.
	FetchQuote(ctx context.Context, base string, symbols []string) (*quote.ForexQuote, error)
}

// Ars fetches ARS/USD reference quotes.
type Ars interface {
	Name() string

	// FetchQuote fetches the current ARS quote. Tarjeta and Cripto are
	// guaranteed positive and finite on success.
	FetchQuote(ctx context.Context) (*quote.ArsQuote, error)
}
