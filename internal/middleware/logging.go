package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger writes one structured access log line per request.
// Register it first so it wraps recover and requestid: it then logs panicking requests
// too, and the request id is already in c.Locals when the line is written.
//
// Errors returned down the chain are handed to the app's ErrorHandler here, before
// logging, so the logged status is the one the client receives.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Run the rest of the chain (other middleware, then the route handler)
		chainErr := c.Next()
		if chainErr != nil {
			// Let ErrorHandler write the response now so the status below is final.
			// If even that fails, fall back to a bare 500.
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// Pick the log level from the outcome: server faults are errors, client
		// mistakes are warnings, everything else is info
		status := c.Response().StatusCode()
		level := zerolog.InfoLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}

		// "requestid" is the Locals key fiber's requestid middleware writes to
		requestID, _ := c.Locals("requestid").(string)
		event := log.WithLevel(level).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", requestID)
		if chainErr != nil {
			event = event.Err(chainErr)
		}
		event.Msg("http_request")

		// The error has been answered above; returning it would make fiber handle it twice
		return nil
	}
}
