package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alejomarin/conversor/pkg/provider"
	"github.com/alejomarin/conversor/pkg/quote"
)

// DefaultExchangeAPIBase is the open.er-api.com v6 endpoint prefix.
const DefaultExchangeAPIBase = "https://open.er-api.com/v6"

// OpenERAPIProvider implements the Forex interface for open.er-api.com.
// The vendor returns every rate for a base currency in a single call; the
// adapter filters down to the requested symbols and validates each one.
type OpenERAPIProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type openERAPIResponse struct {
	Result             string             `json:"result"`
	BaseCode           string             `json:"base_code"`
	Rates              map[string]float64 `json:"rates"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	ErrorType          string             `json:"error-type,omitempty"`
}

// NewOpenERAPIProvider creates an open.er-api.com adapter. baseURL should look
// like https://open.er-api.com/v6; an empty value selects the default.
func NewOpenERAPIProvider(baseURL string, timeout time.Duration, logger *slog.Logger) *OpenERAPIProvider {
	if baseURL == "" {
		baseURL = DefaultExchangeAPIBase
	}
	return &OpenERAPIProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name returns the vendor identifier.
func (p *OpenERAPIProvider) Name() string {
	return "open.er-api.com"
}

// FetchQuote fetches rates for base and keeps only the requested symbols.
func (p *OpenERAPIProvider) FetchQuote(ctx context.Context, base string, symbols []string) (*quote.ForexQuote, error) {
	url := fmt.Sprintf("%s/latest/%s", p.baseURL, strings.ToUpper(base))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", quote.ErrProviderFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", quote.ErrProviderFetch, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", quote.ErrProviderFetch, resp.StatusCode, p.Name())
	}

	var apiResp openERAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", quote.ErrProviderSchema, err)
	}
	if apiResp.Result != "success" {
		return nil, fmt.Errorf("%w: result=%s error-type=%s", quote.ErrProviderSchema, apiResp.Result, apiResp.ErrorType)
	}

	// Every requested symbol must resolve to a positive finite rate, or the
	// whole quote is invalid and must not be used.
	rates := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		rate, ok := apiResp.Rates[symbol]
		if !ok {
			return nil, fmt.Errorf("%w: %s rate not found in response", quote.ErrProviderSchema, symbol)
		}
		if !quote.IsValidRate(rate) {
			return nil, fmt.Errorf("%w: %s=%v", quote.ErrInvalidRate, symbol, rate)
		}
		rates[symbol] = rate
	}

	return &quote.ForexQuote{
		Rates:     rates,
		Base:      strings.ToUpper(base),
		Provider:  p.Name(),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

var _ provider.Forex = (*OpenERAPIProvider)(nil)
