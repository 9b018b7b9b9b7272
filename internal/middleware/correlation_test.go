package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDPropagatesIncomingHeader(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(CorrelationID(zerolog.New(&buf)))
	app.Get("/", func(c *fiber.Ctx) error {
		zerolog.Ctx(c.UserContext()).Info().Msg("inside handler")
		return c.SendString(CorrelationIDFromContext(c.UserContext()) + "|" + GetCorrelationID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-7")
	resp, err := app.Test(req)
	require.NoError(t, err)

	require.Equal(t, "req-7", resp.Header.Get("X-Correlation-ID"))
	body := readBody(t, resp)
	require.Equal(t, "req-7|req-7", body)
	require.Contains(t, buf.String(), `"correlation_id":"req-7"`)
}

func TestCorrelationIDGeneratesWhenMissingOrOversized(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID(zerolog.Nop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for _, incoming := range []string{"", strings.Repeat("x", maxCorrelationIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header.Set("X-Correlation-ID", incoming)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)

		_, err = uuid.Parse(resp.Header.Get("X-Correlation-ID"))
		require.NoError(t, err)
	}
}

func TestCorrelationIDFromContextWithoutValue(t *testing.T) {
	require.Empty(t, CorrelationIDFromContext(context.Background()))
	require.Empty(t, GetCorrelationID(nil))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.String()
}
