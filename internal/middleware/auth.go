// Package middleware contains HTTP middleware for the car service.
// Middleware runs between the HTTP server and route handlers, so it is the place for
// cross-cutting concerns: authentication, authorization, and access logging.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Locals keys written by Auth and read by RequireRole and handlers.
const (
	LocalSubject  = "subject"
	LocalUserRole = "userRole"
)

// Claims is the payload expected inside a bearer token.
// Subject identifies the caller; Role is one of "admin", "manager", or "user".
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Auth returns a middleware that verifies the "Authorization: Bearer <token>" header.
// Tokens must be HS256-signed with secret and carry a subject. Expiry and not-before
// are enforced by the parser. On success the subject and role are stored in c.Locals.
func Auth(secret []byte) fiber.Handler {
	// The parser is built once and shared by every request. Pinning the accepted algorithm
	// to HS256 rejects tokens that claim "none" or an algorithm we never sign with.
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(c *fiber.Ctx) error {
		// Read the Authorization header. Expected format: "Bearer <token>"
		authHeader := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}
		// Strip the "Bearer " prefix to get the raw JWT string
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		// ParseWithClaims checks the signature, then exp and nbf, and fills claims.
		// An expired token gets its own message so clients know to refresh it.
		claims := &Claims{}
		if _, err := parser.ParseWithClaims(tokenStr, claims, keyFunc); err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
		}

		// The subject is how handlers attribute writes, so a token without one is useless
		if claims.Subject == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "token missing subject",
			})
		}

		// Store identity in the request context for RequireRole and the handlers.
		// c.Locals is per-request: values are discarded when the request ends.
		c.Locals(LocalSubject, claims.Subject)
		c.Locals(LocalUserRole, roleFromClaim(claims.Role))
		return c.Next()
	}
}

// roleFromClaim normalizes the role claim; anything unrecognised is the least privileged "user".
func roleFromClaim(s string) string {
	switch s {
	case "admin", "manager":
		return s
	default:
		return "user"
	}
}
