package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hakchin/ppst/internal/config"
	"github.com/hakchin/ppst/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// StoreProbe reports whether the inquiry directory is usable.
type StoreProbe interface {
	Probe() error
}

// HealthCheck returns a handler that reports application health information. A failing
// probe turns the response into a 503.
func HealthCheck(cfg config.Config, probe StoreProbe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if probe != nil {
			if err := probe.Probe(); err != nil {
				payload.Status = "degraded"
				return utils.Fail(c, fiber.StatusServiceUnavailable, "contact store unavailable", payload)
			}
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
