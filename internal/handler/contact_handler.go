package handler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/hakchin/ppst/internal/dto"
	"github.com/hakchin/ppst/internal/service"
	"github.com/hakchin/ppst/internal/utils"
)

const (
	contactSuccessRedirect = "/?success=true"

	messageContactAccepted  = "문의가 접수되었습니다. 빠른 시일 내에 연락드리겠습니다."
	messageContactDuplicate = "이미 접수된 문의입니다."
	messageContactFailed    = "문의를 저장하지 못했습니다. 잠시 후 다시 시도해주세요."
	messageInvalidPayload   = "입력값을 읽을 수 없습니다."
)

// ContactHandler handles contact submissions from the site form.
type ContactHandler struct {
	service   service.ContactService
	cooldown  time.Duration
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewContactHandler constructs a contact handler. cooldown is the Retry-After reported
// when the outcome carries no remaining wait.
func NewContactHandler(service service.ContactService, cooldown time.Duration, logger zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		service:   service,
		cooldown:  cooldown,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "contact_handler").Logger(),
	}
}

// Register wires contact routes.
func (h *ContactHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
}

func (h *ContactHandler) submit(c *fiber.Ctx) error {
	var payload dto.ContactRequest
	if err := c.BodyParser(&payload); err != nil {
		requestLogger(h.logger, c).Debug().Err(err).Msg("unreadable contact payload")
		return h.respond(c, dto.ContactOutcome{Status: dto.ContactInvalid, Errors: []string{messageInvalidPayload}})
	}

	payload.IPAddress = c.IP()
	payload.UserAgent = c.Get(fiber.HeaderUserAgent)

	outcome := h.service.Submit(c.UserContext(), payload)
	return h.respond(c, outcome)
}

func (h *ContactHandler) respond(c *fiber.Ctx, outcome dto.ContactOutcome) error {
	status, messages := h.describe(outcome)
	if outcome.Status == dto.ContactRateLimited {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(h.retryAfterSeconds(outcome)))
	}

	switch {
	case isHTMXRequest(c):
		c.Status(status)
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(h.fragment(outcome.Accepted(), messages))
	case c.Is("json"):
		if outcome.Accepted() {
			return utils.SendSuccess(c, messages[0], outcome)
		}
		var details interface{}
		if outcome.Status == dto.ContactInvalid {
			details = fiber.Map{"errors": outcome.Errors}
		}
		return utils.Fail(c, status, strings.Join(messages, "\n"), details)
	case outcome.Accepted():
		return c.Redirect(contactSuccessRedirect, fiber.StatusSeeOther)
	default:
		return c.Status(status).SendString(strings.Join(messages, "\n"))
	}
}

func (h *ContactHandler) describe(outcome dto.ContactOutcome) (int, []string) {
	switch outcome.Status {
	case dto.ContactAccepted:
		return fiber.StatusOK, []string{messageContactAccepted}
	case dto.ContactInvalid:
		if len(outcome.Errors) == 0 {
			return fiber.StatusBadRequest, []string{messageInvalidPayload}
		}
		return fiber.StatusBadRequest, outcome.Errors
	case dto.ContactRateLimited:
		return fiber.StatusTooManyRequests, []string{fmt.Sprintf("%d초 후에 다시 시도해주세요.", h.retryAfterSeconds(outcome))}
	case dto.ContactDuplicate:
		return fiber.StatusTooManyRequests, []string{messageContactDuplicate}
	default:
		return fiber.StatusInternalServerError, []string{messageContactFailed}
	}
}

// retryAfterSeconds prefers the remaining wait reported by the limiter and falls back to
// the full cool-down.
func (h *ContactHandler) retryAfterSeconds(outcome dto.ContactOutcome) int {
	wait := outcome.RetryAfter
	if wait <= 0 {
		wait = h.cooldown
	}
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func (h *ContactHandler) fragment(success bool, messages []string) string {
	var b strings.Builder
	if success {
		b.WriteString(`<div class="contact-result contact-success" role="status"><p>`)
		b.WriteString(h.sanitizer.Sanitize(messages[0]))
		b.WriteString(`</p></div>`)
		return b.String()
	}

	b.WriteString(`<div class="contact-result contact-error" role="alert"><ul>`)
	for _, message := range messages {
		b.WriteString("<li>")
		b.WriteString(h.sanitizer.Sanitize(message))
		b.WriteString("</li>")
	}
	b.WriteString(`</ul></div>`)
	return b.String()
}
