package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestContext gives every request its own cancellable context, bounded by timeout when
// timeout is positive. Handlers read it with c.UserContext() and pass it to the database and
// the client service, so their work stops once the deadline passes or the request finishes.
//
// fiber leaves c.UserContext() as context.Background() unless a middleware replaces it, and
// fasthttp does not report client disconnects, so the deadline is what bounds the work.
func RequestContext(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			ctx    context.Context
			cancel context.CancelFunc
		)
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(c.UserContext(), timeout)
		} else {
			ctx, cancel = context.WithCancel(c.UserContext())
		}
		// Cancel once the rest of the chain returns, releasing the timer and stopping
		// anything still running on behalf of this request
		defer cancel()

		c.SetUserContext(ctx)
		return c.Next()
	}
}
