package handlers

// This file handles the /api/cars routes. Cars live in our database; the client each car is
// assigned to lives in the client service and is fetched on read.

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/service-car/internal/clientapi"
	"github.com/trentd187/service-car/internal/middleware"
	"github.com/trentd187/service-car/internal/models"
)

// CarStore is the persistence the car handlers need. *repository.CarRepository satisfies it.
type CarStore interface {
	List(ctx context.Context) ([]models.Car, error)
	ListByClient(ctx context.Context, clientID int64) ([]models.Car, error)
	Get(ctx context.Context, id int64) (*models.Car, error)
	Create(ctx context.Context, car *models.Car) error
	Delete(ctx context.Context, id int64) error
}

// CarResponse is a car together with its resolved client. Every car route answers with
// this shape. Client is null when the client service could not resolve it at read time.
type CarResponse struct {
	ID        int64          `json:"id"`
	Brand     string         `json:"brand"`
	Model     string         `json:"model"`
	Matricule string         `json:"matricule"`
	ClientID  int64          `json:"client_id"`
	Client    *models.Client `json:"client"`
	CreatedAt string         `json:"created_at"`
}

// CreateCarRequest is the JSON body expected on POST /api/cars.
type CreateCarRequest struct {
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Matricule string `json:"matricule"`
	ClientID  *int64 `json:"client_id"` // Pointer so a missing field is distinguishable from 0
}

func newCarResponse(car models.Car, client *models.Client) CarResponse {
	return CarResponse{
		ID:        car.ID,
		Brand:     car.Brand,
		Model:     car.Model,
		Matricule: car.Matricule,
		ClientID:  car.ClientID,
		Client:    client,
		// Format the timestamp as ISO 8601 so every consumer parses it the same way
		CreatedAt: car.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// paramID reads the ":id" path segment as a 64-bit integer.
func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		// A fiber.Error carries its own status, so ErrorHandler answers 400 as-is
		return 0, fiber.NewError(fiber.StatusBadRequest, "id must be an integer")
	}
	return id, nil
}

// resolveClient looks up a car's client for display. Failures are logged and yield nil:
// a client service outage must not hide the fleet.
func resolveClient(ctx context.Context, clients clientapi.ClientAPI, car models.Car) *models.Client {
	client, err := clients.FindClientByID(ctx, car.ClientID)
	if err != nil {
		log.Warn().Err(err).Int64("car_id", car.ID).Int64("client_id", car.ClientID).
			Msg("could not resolve client for car")
		return nil
	}
	return client
}

// GetCars returns a handler for GET /api/cars.
// Each distinct client id is looked up once per request.
func GetCars(store CarStore, clients clientapi.ClientAPI) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The user context carries the request deadline set by middleware.RequestContext,
		// so the database query and every client lookup stop when the request does
		ctx := c.UserContext()

		cars, err := store.List(ctx)
		if err != nil {
			return err
		}

		// resolved caches lookups by client id. A nil entry is remembered too, so a client
		// that failed once is not asked for again within the same request.
		resolved := make(map[int64]*models.Client)
		response := make([]CarResponse, 0, len(cars))
		for _, car := range cars {
			client, seen := resolved[car.ClientID]
			if !seen {
				client = resolveClient(ctx, clients, car)
				resolved[car.ClientID] = client
			}
			response = append(response, newCarResponse(car, client))
		}

		return c.JSON(response)
	}
}

// GetCar returns a handler for GET /api/cars/:id.
func GetCar(store CarStore, clients clientapi.ClientAPI) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}

		// A missing car comes back as repository.ErrCarNotFound, which ErrorHandler maps to 404
		car, err := store.Get(c.UserContext(), id)
		if err != nil {
			return err
		}

		return c.JSON(newCarResponse(*car, resolveClient(c.UserContext(), clients, *car)))
	}
}

// GetClientCars returns a handler for GET /api/clients/:id/cars.
// All cars share one owner, so the client service is asked at most once, and not at all
// when the client has no cars.
func GetClientCars(store CarStore, clients clientapi.ClientAPI) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID, err := paramID(c)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		cars, err := store.ListByClient(ctx, clientID)
		if err != nil {
			return err
		}

		response := make([]CarResponse, 0, len(cars))
		if len(cars) == 0 {
			return c.JSON(response)
		}

		// Same display rule as GET /api/cars: an unresolved owner renders as null
		client := resolveClient(ctx, clients, cars[0])
		for _, car := range cars {
			response = append(response, newCarResponse(car, client))
		}
		return c.JSON(response)
	}
}

// CreateCar returns a handler for POST /api/cars.
// Requires "admin" or "manager" (enforced by RequireRole on the route).
// The owning client must exist in the client service before the car is stored.
func CreateCar(store CarStore, clients clientapi.ClientAPI) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Parse the JSON request body into our request struct.
		// c.BodyParser picks the decoder from the Content-Type header.
		var req CreateCarRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		// Validate required fields. Surrounding whitespace is dropped first so "  "
		// does not count as a brand.
		req.Brand = strings.TrimSpace(req.Brand)
		req.Model = strings.TrimSpace(req.Model)
		req.Matricule = strings.TrimSpace(req.Matricule)
		switch {
		case req.Brand == "":
			return fiber.NewError(fiber.StatusBadRequest, "brand is required")
		case req.Model == "":
			return fiber.NewError(fiber.StatusBadRequest, "model is required")
		case req.Matricule == "":
			return fiber.NewError(fiber.StatusBadRequest, "matricule is required")
		case req.ClientID == nil:
			return fiber.NewError(fiber.StatusBadRequest, "client_id is required")
		}

		// The client must exist before we reference it. A missing client is the caller's
		// mistake (422); any other lookup failure is passed on for ErrorHandler to map.
		ctx := c.UserContext()
		client, err := clients.FindClientByID(ctx, *req.ClientID)
		if errors.Is(err, clientapi.ErrClientNotFound) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "client does not exist")
		}
		if err != nil {
			return err
		}

		// Build the Car struct. GORM fills in ID, CreatedAt and UpdatedAt on INSERT.
		car := models.Car{
			Brand:     req.Brand,
			Model:     req.Model,
			Matricule: req.Matricule,
			ClientID:  *req.ClientID,
		}
		// A reused matricule comes back as repository.ErrDuplicateMatricule (409)
		if err := store.Create(ctx, &car); err != nil {
			return err
		}

		log.Info().Int64("car_id", car.ID).Str("matricule", car.Matricule).
			Str("by", subjectOf(c)).Msg("car created")

		// 201 Created with the stored car and the client we just looked up
		return c.Status(fiber.StatusCreated).JSON(newCarResponse(car, client))
	}
}

// DeleteCar returns a handler for DELETE /api/cars/:id. Requires "admin".
func DeleteCar(store CarStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}

		if err := store.Delete(c.UserContext(), id); err != nil {
			return err
		}

		log.Info().Int64("car_id", id).Str("by", subjectOf(c)).Msg("car deleted")

		// 204 No Content: the car is gone and there is nothing to send back
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// subjectOf returns the token subject stored by middleware.Auth, or "" on public routes.
func subjectOf(c *fiber.Ctx) string {
	sub, _ := c.Locals(middleware.LocalSubject).(string)
	return sub
}
