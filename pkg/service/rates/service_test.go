package rates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	infracache "github.com/alejomarin/conversor/infra/cache"
	"github.com/alejomarin/conversor/pkg/provider"
	"github.com/alejomarin/conversor/pkg/quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForex struct {
	name  string
	quote *quote.ForexQuote
	err   error
	calls int
}

func (f *fakeForex) Name() string { return f.name }

func (f *fakeForex) FetchQuote(context.Context, string, []string) (*quote.ForexQuote, error) {
	f.calls++
	return f.quote, f.err
}

type fakeArs struct {
	name  string
	quote *quote.ArsQuote
	err   error
	calls int
}

func (f *fakeArs) Name() string { return f.name }

func (f *fakeArs) FetchQuote(context.Context) (*quote.ArsQuote, error) {
	f.calls++
	return f.quote, f.err
}

func newService(forex []provider.Forex, ars []provider.Ars) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(
		forex,
		ars,
		infracache.NewMemoryCache[*quote.ForexQuote](),
		infracache.NewMemoryCache[*quote.ArsQuote](),
		time.Minute,
		45*time.Second,
		logger,
	)
}

func penQuote(provider string) *quote.ForexQuote {
	return &quote.ForexQuote{
		Rates:     map[string]float64{"USD": 0.27},
		Base:      "PEN",
		Provider:  provider,
		UpdatedAt: time.Now(),
	}
}

func TestGetForexQuote_PrimarySuccess(t *testing.T) {
	primary := &fakeForex{name: "primary", quote: penQuote("primary")}
	secondary := &fakeForex{name: "secondary", quote: penQuote("secondary")}
	svc := newService([]provider.Forex{primary, secondary}, nil)

	q, err := svc.GetForexQuote(context.Background(), "PEN", []string{"USD"})
	require.NoError(t, err)
	assert.Equal(t, "primary", q.Provider)
	assert.Equal(t, 0, secondary.calls, "fallback must not run when primary succeeds")
}

func TestGetForexQuote_FallbackOnPrimaryFailure(t *testing.T) {
	primary := &fakeForex{name: "primary", err: quote.ErrProviderFetch}
	secondary := &fakeForex{name: "secondary", quote: penQuote("secondary")}
	svc := newService([]provider.Forex{primary, secondary}, nil)

	q, err := svc.GetForexQuote(context.Background(), "PEN", []string{"USD"})
	require.NoError(t, err)
	assert.Equal(t, "secondary", q.Provider)
	assert.Equal(t, 1, primary.calls)
}

func TestGetForexQuote_FallbackResultSharesCacheKey(t *testing.T) {
	primary := &fakeForex{name: "primary", err: quote.ErrProviderFetch}
	secondary := &fakeForex{name: "secondary", quote: penQuote("secondary")}
	svc := newService([]provider.Forex{primary, secondary}, nil)

	_, err := svc.GetForexQuote(context.Background(), "PEN", []string{"USD"})
	require.NoError(t, err)

	// Second call is served from cache under the same key; neither provider
	// is consulted again.
	q, err := svc.GetForexQuote(context.Background(), "pen", []string{" usd "})
	require.NoError(t, err)
	assert.Equal(t, "secondary", q.Provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestGetForexQuote_ExhaustionWhenAllFail(t *testing.T) {
	primary := &fakeForex{name: "primary", err: errors.New("boom")}
	secondary := &fakeForex{name: "secondary", err: errors.New("also boom")}
	svc := newService([]provider.Forex{primary, secondary}, nil)

	_, err := svc.GetForexQuote(context.Background(), "PEN", []string{"USD"})
	require.ErrorIs(t, err, quote.ErrProviderExhausted)
	assert.Contains(t, err.Error(), "also boom")
}

func TestGetArsQuote_CachedWithinTTL(t *testing.T) {
	p := &fakeArs{name: "criptoya", quote: &quote.ArsQuote{
		Tarjeta: 1456, Cripto: 1321.5, Provider: "criptoya", UpdatedAt: time.Now(),
	}}
	svc := newService(nil, []provider.Ars{p})

	first, err := svc.GetArsQuote(context.Background())
	require.NoError(t, err)

	second, err := svc.GetArsQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.calls, "second call must be served from cache")
}

func TestGetArsQuote_Exhaustion(t *testing.T) {
	svc := newService(nil, []provider.Ars{
		&fakeArs{name: "criptoya", err: quote.ErrProviderFetch},
		&fakeArs{name: "dolarapi", err: quote.ErrProviderSchema},
	})

	_, err := svc.GetArsQuote(context.Background())
	require.ErrorIs(t, err, quote.ErrProviderExhausted)
}

func TestForexKey_NormalizesBaseAndSymbols(t *testing.T) {
	assert.Equal(t, forexKey("PEN", []string{"USD", "EUR"}), forexKey("pen", []string{"eur", " usd"}))
	assert.NotEqual(t, forexKey("PEN", []string{"USD"}), forexKey("PEN", []string{"EUR"}))
}
