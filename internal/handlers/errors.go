package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/service-car/internal/clientapi"
	"github.com/trentd187/service-car/internal/repository"
)

// ErrorHandler is the app-wide fiber.Config.ErrorHandler. Handlers return errors as-is and
// this function decides the HTTP status and writes {"error": "..."}.
//
// Client service failures keep their meaning: a missing client is a 404, and any other
// upstream status is relayed unchanged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, msg := statusFor(err)
	// 4xx answers are the caller's problem and show up in the access log already;
	// only server-side failures get their own error line
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func statusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	var upstream *clientapi.StatusError

	// Order matters: a fiber.Error is already decided, and a timeout is checked before the
	// generic client service failure it is wrapped in
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, clientapi.ErrClientNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.As(err, &upstream):
		return upstream.StatusCode, upstream.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "client service timed out"
	case errors.Is(err, clientapi.ErrClientService):
		return fiber.StatusBadGateway, "client service unavailable"
	case errors.Is(err, repository.ErrCarNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, repository.ErrDuplicateMatricule):
		return fiber.StatusConflict, err.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}
