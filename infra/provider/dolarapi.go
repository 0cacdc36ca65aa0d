package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejomarin/conversor/pkg/provider"
	"github.com/alejomarin/conversor/pkg/quote"
)

// DefaultDolarAPIURL is the dolarapi dollar listing endpoint.
const DefaultDolarAPIURL = "https://dolarapi.com/v1/dolares"

// DolarAPIProvider implements the Ars interface for dolarapi.com. The vendor
// returns a flat list of rows keyed by "casa"; the adapter maps each casa to
// its canonical field ("bolsa" is the MEP rate, "contadoconliqui" the CCL).
type DolarAPIProvider struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

type dolarAPIItem struct {
	Casa               string  `json:"casa"`
	Venta              float64 `json:"venta"`
	FechaActualizacion string  `json:"fechaActualizacion"`
}

// NewDolarAPIProvider creates a dolarapi adapter. An empty url selects the
// default endpoint.
func NewDolarAPIProvider(url string, timeout time.Duration, logger *slog.Logger) *DolarAPIProvider {
	if url == "" {
		url = DefaultDolarAPIURL
	}
	return &DolarAPIProvider{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name returns the vendor identifier.
func (p *DolarAPIProvider) Name() string {
	return "dolarapi"
}

// FetchQuote fetches and normalizes the dolarapi dollar listing.
func (p *DolarAPIProvider) FetchQuote(ctx context.Context) (*quote.ArsQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
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

	var items []dolarAPIItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", quote.ErrProviderSchema, err)
	}

	q := &quote.ArsQuote{
		Provider:  p.Name(),
		UpdatedAt: time.Now().UTC(),
	}
	for _, item := range items {
		if !quote.IsValidRate(item.Venta) {
			continue
		}
		venta := item.Venta
		switch item.Casa {
		case "tarjeta":
			q.Tarjeta = venta
		case "cripto":
			q.Cripto = venta
		case "blue":
			q.Blue = &venta
		case "bolsa":
			q.Mep = &venta
		case "contadoconliqui":
			q.Ccl = &venta
		}
	}

	if q.Tarjeta == 0 || q.Cripto == 0 {
		return nil, fmt.Errorf("%w: missing tarjeta or cripto from %s", quote.ErrProviderSchema, p.Name())
	}
	return q, nil
}

var _ provider.Ars = (*DolarAPIProvider)(nil)
