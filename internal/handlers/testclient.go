// Package handlers contains the HTTP route handlers for the car service.
// Each exported function follows the handler factory pattern: it takes its dependencies
// and returns a fiber.Handler, so nothing is held in package-level state.
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/service-car/internal/clientapi"
)

// TestClient returns a handler for GET /api/test/client/:id.
//
// It is a pass-through to the client service: the id from the path goes to
// FindClientByID exactly once and the client comes back untouched. No range checks are
// made on the id; zero and negative values are forwarded like any other. Lookup errors are
// returned unchanged for ErrorHandler to translate.
func TestClient(clients clientapi.ClientAPI) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The path segment must bind to a 64-bit integer; anything else never reaches
		// the client service
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "id must be an integer")
		}

		// One lookup per request, on the request's own context so it is abandoned
		// when the request deadline passes
		client, err := clients.FindClientByID(c.UserContext(), id)
		if err != nil {
			// Not found, upstream status, timeout: ErrorHandler knows each one
			return err
		}

		// The client is written back exactly as decoded, no fields added or dropped
		return c.JSON(client)
	}
}
