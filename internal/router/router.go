package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hakchin/ppst/internal/config"
	"github.com/hakchin/ppst/internal/handler"
	"github.com/hakchin/ppst/internal/observability"
)

// MetricsPath is where the Prometheus scrape endpoint is mounted.
const MetricsPath = "/metrics"

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ContactHandler *handler.ContactHandler
	ExportHandler  *handler.ContactExportHandler
	StoreProbe     handler.StoreProbe
	// ExportGuards run in order before every export route, typically auth then limiting.
	ExportGuards []fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get(MetricsPath, observability.MetricsHandler())

	if deps.ContactHandler != nil {
		// Form posts from the public site.
		deps.ContactHandler.Register(app.Group("/contact"))
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.StoreProbe))

	if deps.ContactHandler != nil {
		deps.ContactHandler.Register(api.Group("/contact"))
	}

	// Export exposes personal data; without guards the routes stay unregistered.
	if deps.ExportHandler != nil && len(deps.ExportGuards) > 0 {
		contacts := api.Group("/contacts", deps.ExportGuards...)
		deps.ExportHandler.Register(contacts)
	}
}
