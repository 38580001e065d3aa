package handlers

import (
	"context"
	"io"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/service-car/internal/clientapi"
	"github.com/trentd187/service-car/internal/models"
	"github.com/trentd187/service-car/internal/repository"
)

// fakeClients is a ClientAPI that records every call.
type fakeClients struct {
	mu      sync.Mutex
	clients map[int64]*models.Client
	err     error // returned for every lookup when set
	calls   []int64
	ctxs    []context.Context // context of each call, in order
}

func (f *fakeClients) FindClientByID(ctx context.Context, id int64) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	f.ctxs = append(f.ctxs, ctx)
	if f.err != nil {
		return nil, f.err
	}
	client, ok := f.clients[id]
	if !ok {
		return nil, clientapi.ErrClientNotFound
	}
	return client, nil
}

// fakeCars is an in-memory CarStore.
type fakeCars struct {
	mu     sync.Mutex
	nextID int64
	cars   map[int64]models.Car
	err    error
}

func newFakeCars(cars ...models.Car) *fakeCars {
	f := &fakeCars{cars: make(map[int64]models.Car)}
	for _, car := range cars {
		f.cars[car.ID] = car
		if car.ID > f.nextID {
			f.nextID = car.ID
		}
	}
	return f
}

func (f *fakeCars) sorted(keep func(models.Car) bool) []models.Car {
	out := make([]models.Car, 0, len(f.cars))
	for _, car := range f.cars {
		if keep(car) {
			out = append(out, car)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeCars) List(context.Context) ([]models.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(models.Car) bool { return true }), nil
}

func (f *fakeCars) ListByClient(_ context.Context, clientID int64) ([]models.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(car models.Car) bool { return car.ClientID == clientID }), nil
}

func (f *fakeCars) Get(_ context.Context, id int64) (*models.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	car, ok := f.cars[id]
	if !ok {
		return nil, repository.ErrCarNotFound
	}
	return &car, nil
}

func (f *fakeCars) Create(_ context.Context, car *models.Car) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.cars {
		if existing.Matricule == car.Matricule {
			return repository.ErrDuplicateMatricule
		}
	}
	f.nextID++
	car.ID = f.nextID
	car.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.cars[car.ID] = *car
	return nil
}

func (f *fakeCars) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cars[id]; !ok {
		return repository.ErrCarNotFound
	}
	delete(f.cars, id)
	return nil
}

// newTestApp returns a bare fiber app using the production ErrorHandler.
func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}
