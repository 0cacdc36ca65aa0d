package webapi

import "github.com/gofiber/fiber/v2"

// Routes registers every HTTP endpoint on the app.
func Routes(app *fiber.App, rates RateService, converter Converter, scanner Scanner) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/forex", GetForexRates(rates))
	api.Get("/ars", GetArsRates(rates))
	api.Post("/convert", PostConvert(converter))
	api.Post("/openai", PostOpenAI(scanner))
}
