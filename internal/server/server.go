// Package server assembles the fiber application: global middleware, error handling,
// and every route the car service exposes. cmd/server and the route tests share it.
package server

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/trentd187/service-car/internal/clientapi"
	"github.com/trentd187/service-car/internal/handlers"
	"github.com/trentd187/service-car/internal/middleware"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Clients   clientapi.ClientAPI
	Cars      handlers.CarStore
	JWTSecret []byte
	// Checks run by GET /health/ready, keyed by dependency name.
	Checks map[string]handlers.Checker
	// RequestTimeout bounds the context handlers pass downstream. Zero means no deadline,
	// but the context is still cancelled when the request ends.
	RequestTimeout time.Duration
}

// New builds the fiber app and registers all routes:
//
//	GET    /health                  liveness
//	GET    /health/ready            readiness (database, client service)
//	GET    /api/test/client/:id     client lookup pass-through
//	GET    /api/cars                cars with their clients
//	GET    /api/cars/:id            one car with its client
//	GET    /api/clients/:id/cars    cars assigned to a client
//	POST   /api/cars                (admin, manager) create a car
//	DELETE /api/cars/:id            (admin) delete a car
func New(cfg fiber.Config, deps Deps) *fiber.App {
	if cfg.AppName == "" {
		cfg.AppName = "service-car"
	}
	// Every error a handler returns ends up in one place that picks the status code
	cfg.ErrorHandler = handlers.ErrorHandler
	// goccy/go-json is a drop-in replacement for encoding/json used for bodies both ways
	cfg.JSONEncoder = json.Marshal
	cfg.JSONDecoder = json.Unmarshal

	app := fiber.New(cfg)

	// --- Global middleware ---
	// Order matters: each one wraps everything registered after it.
	// The access logger is outermost so it also sees requests that panicked; recover turns
	// the panic into an error that flows back out to the logger.
	app.Use(middleware.RequestLogger())
	app.Use(recover.New())
	// requestid sets X-Request-ID on the response and stores it in c.Locals("requestid")
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.RequestContext(deps.RequestTimeout))
	app.Use(cors.New())

	// --- Public routes (no auth required) ---
	app.Get("/health", handlers.HealthCheck)
	app.Get("/health/ready", handlers.Ready(deps.Checks))

	api := app.Group("/api")

	api.Get("/test/client/:id", handlers.TestClient(deps.Clients))

	// Reads are public; writes need a valid token and the right role.
	// Auth must run before RequireRole because it is what stores the role.
	auth := middleware.Auth(deps.JWTSecret)
	api.Get("/cars", handlers.GetCars(deps.Cars, deps.Clients))
	api.Get("/cars/:id", handlers.GetCar(deps.Cars, deps.Clients))
	api.Get("/clients/:id/cars", handlers.GetClientCars(deps.Cars, deps.Clients))
	api.Post("/cars", auth, middleware.RequireRole("admin", "manager"), handlers.CreateCar(deps.Cars, deps.Clients))
	api.Delete("/cars/:id", auth, middleware.RequireRole("admin"), handlers.DeleteCar(deps.Cars))

	return app
}
