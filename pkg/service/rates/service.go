// Package rates aggregates upstream rate vendors behind one stable contract:
// cache read-through, then the configured primary adapter, then the fallback.
package rates

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alejomarin/conversor/pkg/cache"
	"github.com/alejomarin/conversor/pkg/provider"
	"github.com/alejomarin/conversor/pkg/quote"
)

const (
	// DefaultForexTTL is the cache lifetime for forex quotes.
	DefaultForexTTL = 60 * time.Second
	// DefaultArsTTL is the cache lifetime for ARS quotes.
	DefaultArsTTL = 45 * time.Second

	arsCacheKey = "ars"
)

// Service resolves forex and ARS quotes, trying the cache first and failing
// over between providers in their configured order. Calls are sequential on
// purpose: first success wins and fallback only runs on failure, so the worst
// case is bounded by timeout per provider without any coordination.
type Service struct {
	forexProviders []provider.Forex
	arsProviders   []provider.Ars
	forexCache     cache.Cache[*quote.ForexQuote]
	arsCache       cache.Cache[*quote.ArsQuote]
	forexTTL       time.Duration
	arsTTL         time.Duration
	logger         *slog.Logger
}

// New creates a rate aggregation service. Provider slices are tried in order;
// the first element is the configured primary.
func New(
	forexProviders []provider.Forex,
	arsProviders []provider.Ars,
	forexCache cache.Cache[*quote.ForexQuote],
	arsCache cache.Cache[*quote.ArsQuote],
	forexTTL, arsTTL time.Duration,
	logger *slog.Logger,
) *Service {
	if forexTTL <= 0 {
		forexTTL = DefaultForexTTL
	}
	if arsTTL <= 0 {
		arsTTL = DefaultArsTTL
	}
	return &Service{
		forexProviders: forexProviders,
		arsProviders:   arsProviders,
		forexCache:     forexCache,
		arsCache:       arsCache,
		forexTTL:       forexTTL,
		arsTTL:         arsTTL,
		logger:         logger,
	}
}

// forexKey builds the cache key for a base/symbol-set combination. Symbols are
// sorted so the same set always lands on the same entry.
func forexKey(base string, symbols []string) string {
	normalized := make([]string, len(symbols))
	for i, s := range symbols {
		normalized[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	sort.Strings(normalized)
	return fmt.Sprintf("forex:%s:%s", strings.ToUpper(base), strings.Join(normalized, ","))
}

// GetForexQuote returns a forex quote for base against symbols, from cache
// when fresh, otherwise from the first provider that succeeds.
func (s *Service) GetForexQuote(ctx context.Context, base string, symbols []string) (*quote.ForexQuote, error) {
	key := forexKey(base, symbols)

	if cached, ok, err := s.forexCache.Get(ctx, key); err == nil && ok {
		s.logger.Debug("forex quote served from cache", "key", key, "provider", cached.Provider)
		return cached, nil
	}

	var lastErr error
	for _, p := range s.forexProviders {
		q, err := p.FetchQuote(ctx, base, symbols)
		if err != nil {
			s.logger.Warn("forex provider failed", "provider", p.Name(), "error", err)
			lastErr = err
			continue
		}

		if err := s.forexCache.Set(ctx, key, q, s.forexTTL); err != nil {
			s.logger.Warn("failed to cache forex quote", "key", key, "error", err)
		}
		s.logger.Info("forex quote fetched", "provider", p.Name(), "base", q.Base)
		return q, nil
	}

	return nil, exhausted(lastErr)
}

// GetArsQuote returns the current ARS quote, from cache when fresh, otherwise
// from the first provider that succeeds.
func (s *Service) GetArsQuote(ctx context.Context) (*quote.ArsQuote, error) {
	if cached, ok, err := s.arsCache.Get(ctx, arsCacheKey); err == nil && ok {
		s.logger.Debug("ars quote served from cache", "provider", cached.Provider)
		return cached, nil
	}

	var lastErr error
	for _, p := range s.arsProviders {
		q, err := p.FetchQuote(ctx)
		if err != nil {
			s.logger.Warn("ars provider failed", "provider", p.Name(), "error", err)
			lastErr = err
			continue
		}

		if err := s.arsCache.Set(ctx, arsCacheKey, q, s.arsTTL); err != nil {
			s.logger.Warn("failed to cache ars quote", "error", err)
		}
		s.logger.Info("ars quote fetched", "provider", p.Name(), "tarjeta", q.Tarjeta, "cripto", q.Cripto)
		return q, nil
	}

	return nil, exhausted(lastErr)
}

func exhausted(lastErr error) error {
	if lastErr != nil {
		return fmt.Errorf("%w: last error: %v", quote.ErrProviderExhausted, lastErr)
	}
	return quote.ErrProviderExhausted
}
