package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// readyTimeout bounds the whole readiness probe so a hung dependency cannot stall it.
const readyTimeout = 3 * time.Second

// Checker probes one dependency and returns nil when it is usable.
type Checker func(ctx context.Context) error

// HealthCheck handles GET /health.
// It is a liveness probe only: no database, no client service, no authentication.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready returns a handler for GET /health/ready that runs every check and answers
// 200 when all pass, 503 with the per-check results otherwise.
func Ready(checks map[string]Checker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// One budget for all checks, so readiness answers even when a dependency hangs
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		// Run every check even after a failure so the response names all broken dependencies
		results := make(fiber.Map, len(checks))
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				healthy = false
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		// 503 tells the orchestrator to stop routing traffic here until the checks pass
		if !healthy {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"checks": results,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
