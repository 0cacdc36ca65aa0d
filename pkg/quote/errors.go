package quote

import "errors"

var (
	// ErrProviderFetch indicates a network failure, timeout, or non-2xx
	// response from an upstream rate vendor.
	ErrProviderFetch = errors.New("provider fetch failed")

	// ErrProviderSchema indicates the upstream responded but the payload was
	// malformed or missing required fields.
	ErrProviderSchema = errors.New("provider returned malformed payload")

	// ErrProviderExhausted indicates both the primary and fallback providers
	// failed to produce a usable quote.
	ErrProviderExhausted = errors.New("all rate providers failed")

	// ErrInvalidRate indicates a rate that is missing, zero, negative, or not
	// finite. Quotes carrying such rates must never be cached or used.
	ErrInvalidRate = errors.New("invalid exchange rate")
)
