package middleware

import "github.com/gofiber/fiber/v2"

// RequireRole allows only callers whose role matches one of roles and answers
// 403 Forbidden otherwise. It must run after Auth, which populates the role:
//
//	api.Post("/cars", middleware.Auth(secret), middleware.RequireRole("admin", "manager"), h.CreateCar)
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Auth stored the role earlier in this request. The .(string) type assertion
		// reports ok=false when the value is missing, e.g. Auth was not applied.
		userRole, ok := c.Locals(LocalUserRole).(string)
		if !ok || userRole == "" {
			// 403 rather than 401: the problem is permission, not identity
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		// Let the request continue the moment the role matches an allowed one
		for _, role := range roles {
			if userRole == role {
				return c.Next()
			}
		}

		// Authenticated, but not allowed to do this
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient permissions",
		})
	}
}
