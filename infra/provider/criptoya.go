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

const userAgent = "conversor/1.0"

// DefaultCriptoyaURL is the criptoya dollar endpoint.
const DefaultCriptoyaURL = "https://criptoya.com/api/dolar"

// CriptoyaProvider implements the Ars interface for criptoya.com. The vendor
// nests each rate in an object whose price field is named either "venta" or
// "value" depending on the rate type; the adapter accepts both and never
// unifies the semantics across vendors.
type CriptoyaProvider struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// criptoyaEntry is one nested rate object. Exactly one of Venta or Value is
// expected to be set.
type criptoyaEntry struct {
	Venta *float64 `json:"venta"`
	Value *float64 `json:"value"`
}

// price resolves the venta/value union, preferring venta.
func (e *criptoyaEntry) price() *float64 {
	if e == nil {
		return nil
	}
	if e.Venta != nil {
		return e.Venta
	}
	return e.Value
}

type criptoyaResponse struct {
	Tarjeta *criptoyaEntry `json:"tarjeta"`
	Cripto  *criptoyaEntry `json:"cripto"`
	Blue    *criptoyaEntry `json:"blue"`
	Mep     *criptoyaEntry `json:"mep"`
	Ccl     *criptoyaEntry `json:"ccl"`
}

// NewCriptoyaProvider creates a criptoya adapter. An empty url selects the
// default endpoint.
func NewCriptoyaProvider(url string, timeout time.Duration, logger *slog.Logger) *CriptoyaProvider {
	if url == "" {
		url = DefaultCriptoyaURL
	}
	return &CriptoyaProvider{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name returns the vendor identifier.
func (p *CriptoyaProvider) Name() string {
	return "criptoya"
}

// FetchQuote fetches and normalizes the criptoya dollar quote.
func (p *CriptoyaProvider) FetchQuote(ctx context.Context) (*quote.ArsQuote, error) {
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

	var apiResp criptoyaResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", quote.ErrProviderSchema, err)
	}

	tarjeta := apiResp.Tarjeta.price()
	cripto := apiResp.Cripto.price()
	if tarjeta == nil || cripto == nil {
		return nil, fmt.Errorf("%w: missing tarjeta or cripto from %s", quote.ErrProviderSchema, p.Name())
	}
	if !quote.IsValidRate(*tarjeta) || !quote.IsValidRate(*cripto) {
		return nil, fmt.Errorf("%w: tarjeta=%v cripto=%v", quote.ErrInvalidRate, *tarjeta, *cripto)
	}

	q := &quote.ArsQuote{
		Tarjeta:   *tarjeta,
		Cripto:    *cripto,
		Provider:  p.Name(),
		UpdatedAt: time.Now().UTC(),
	}
	q.Blue = validOptional(apiResp.Blue.price())
	q.Mep = validOptional(apiResp.Mep.price())
	q.Ccl = validOptional(apiResp.Ccl.price())
	return q, nil
}

// validOptional keeps an optional rate only when it is usable.
func validOptional(v *float64) *float64 {
	if v == nil || !quote.IsValidRate(*v) {
		return nil
	}
	return v
}

var _ provider.Ars = (*CriptoyaProvider)(nil)
