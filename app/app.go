// Package app wires configuration, caches, providers and services into a
// runnable fiber application.
package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/alejomarin/conversor/infra/cache"
	infraprovider "github.com/alejomarin/conversor/infra/provider"
	pkgcache "github.com/alejomarin/conversor/pkg/cache"
	"github.com/alejomarin/conversor/pkg/config"
	"github.com/alejomarin/conversor/pkg/openai"
	"github.com/alejomarin/conversor/pkg/provider"
	"github.com/alejomarin/conversor/pkg/quote"
	"github.com/alejomarin/conversor/pkg/service/convert"
	"github.com/alejomarin/conversor/pkg/service/rates"
	"github.com/alejomarin/conversor/pkg/service/scan"
	"github.com/alejomarin/conversor/webapi"
)

// New builds the fiber app with all services wired. The ARS provider order
// follows cfg.Ars.Provider; the other vendor becomes the fallback.
func New(cfg *config.App, logger *slog.Logger) (*fiber.App, error) {
	timeout := cfg.Provider.HTTPTimeout

	forexProviders := []provider.Forex{
		infraprovider.NewOpenERAPIProvider(cfg.Exchange.APIBase, timeout, logger),
	}

	criptoya := infraprovider.NewCriptoyaProvider(cfg.Ars.CriptoyaURL, timeout, logger)
	dolarapi := infraprovider.NewDolarAPIProvider(cfg.Ars.DolarAPIURL, timeout, logger)

	var arsProviders []provider.Ars
	switch strings.ToLower(cfg.Ars.Provider) {
	case "dolarapi":
		arsProviders = []provider.Ars{dolarapi, criptoya}
	case "", "criptoya":
		arsProviders = []provider.Ars{criptoya, dolarapi}
	default:
		return nil, fmt.Errorf("unknown ARS provider %q", cfg.Ars.Provider)
	}

	forexCache, arsCache, err := buildCaches(cfg, logger)
	if err != nil {
		return nil, err
	}

	ratesSvc := rates.New(
		forexProviders, arsProviders,
		forexCache, arsCache,
		cfg.Forex.CacheTTL, cfg.Ars.CacheTTL,
		logger,
	)
	convertSvc := convert.New(ratesSvc, logger)

	scanSvc := scan.New(
		openai.NewClient(cfg.OpenAI.APIURL, logger),
		scan.NewToolSet(ratesSvc, convertSvc, logger),
		scan.DefaultPriceTable(),
		scan.Config{
			MaxIterations:   cfg.Scan.MaxIterations,
			InitialTimeout:  cfg.OpenAI.InitialTimeout,
			FollowupTimeout: cfg.OpenAI.FollowupTimeout,
		},
		logger,
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return webapi.ErrorResponseJSON(c, fiber.StatusInternalServerError, "Internal Server Error", err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.Max,
		Expiration: cfg.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Prefer X-Forwarded-For so clients behind a proxy are limited
			// individually, not as one.
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return webapi.ErrorResponseJSON(c, fiber.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
		},
	}))

	webapi.Routes(app, ratesSvc, convertSvc, scanSvc)
	return app, nil
}

// buildCaches returns the quote caches, Redis-backed when REDIS_URL is set,
// in-memory otherwise.
func buildCaches(cfg *config.App, logger *slog.Logger) (pkgcache.Cache[*quote.ForexQuote], pkgcache.Cache[*quote.ArsQuote], error) {
	if cfg.Redis.URL == "" {
		return cache.NewMemoryCache[*quote.ForexQuote](), cache.NewMemoryCache[*quote.ArsQuote](), nil
	}

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	logger.Info("using redis quote cache", "addr", opt.Addr)
	return cache.NewRedisCache[*quote.ForexQuote](opt, cfg.Redis.KeyPrefix, logger),
		cache.NewRedisCache[*quote.ArsQuote](opt, cfg.Redis.KeyPrefix, logger),
		nil
}
