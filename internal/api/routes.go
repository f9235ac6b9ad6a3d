package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck is one named dependency probed by /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func RegisterRoutes(app *fiber.App, h *Handler, checks ...HealthCheck) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		results := map[string]string{}
		status := "ok"
		code := fiber.StatusOK

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, hc := range checks {
			if err := hc.Check(healthCtx); err != nil {
				results[hc.Name] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
				continue
			}
			results[hc.Name] = "ok"
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": results,
		})
	})

	g := app.Group("/api")
	g.Get("/scrape", h.Scrape)
	g.Get("/products", h.ListProducts)
	g.Post("/products", h.UpdateProducts)
	g.Post("/products/import", h.ImportProducts)
	g.Get("/products/imported", h.ImportedProducts)
	g.Get("/migrate", h.Migrate)
}
