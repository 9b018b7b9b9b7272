package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hakchin/ppst/internal/dto"
	"github.com/hakchin/ppst/internal/service"
	"github.com/hakchin/ppst/internal/utils"
)

// ContactExportHandler serves the stored inquiries as NDJSON or a pretty JSON array.
type ContactExportHandler struct {
	service service.ContactService
	logger  zerolog.Logger
}

// NewContactExportHandler constructs an export handler.
func NewContactExportHandler(service service.ContactService, logger zerolog.Logger) *ContactExportHandler {
	return &ContactExportHandler{
		service: service,
		logger:  logger.With().Str("component", "contact_export_handler").Logger(),
	}
}

// Register wires export routes. Callers are expected to guard the router.
func (h *ContactExportHandler) Register(router fiber.Router) {
	router.Get("/export", h.export)
	router.Get("/export.ndjson", h.exportAs(dto.ExportNDJSON))
	router.Get("/export.json", h.exportAs(dto.ExportJSON))
}

func (h *ContactExportHandler) export(c *fiber.Ctx) error {
	format, err := dto.ParseExportFormat(c.Query("format"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unsupported export format")
	}
	return h.write(c, format)
}

func (h *ContactExportHandler) exportAs(format dto.ExportFormat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.write(c, format)
	}
}

func (h *ContactExportHandler) write(c *fiber.Ctx, format dto.ExportFormat) error {
	body, err := h.service.Export(c.UserContext(), format)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedExportFormat) {
			return utils.SendError(c, fiber.StatusBadRequest, "unsupported export format")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("format", string(format)).Msg("contact export failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "export failed")
	}

	if subject, ok := c.Locals("export_subject").(string); ok && subject != "" {
		requestLogger(h.logger, c).Info().Str("subject", subject).Str("format", string(format)).Msg("contact export served")
	}

	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Status(fiber.StatusOK).SendString(body)
}
