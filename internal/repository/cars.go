// Package repository persists the car fleet.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/trentd187/service-car/internal/models"
)

var (
	// ErrCarNotFound is returned when no car has the requested id.
	ErrCarNotFound = errors.New("car not found")
	// ErrDuplicateMatricule is returned when another car already uses the registration plate.
	ErrDuplicateMatricule = errors.New("a car with this matricule already exists")
)

// CarRepository reads and writes cars through GORM.
type CarRepository struct {
	db *gorm.DB
}

// NewCarRepository creates a repository over db. db must be opened with TranslateError
// enabled so unique violations come back as gorm.ErrDuplicatedKey.
func NewCarRepository(db *gorm.DB) *CarRepository {
	return &CarRepository{db: db}
}

// List returns every car ordered by id.
func (r *CarRepository) List(ctx context.Context) ([]models.Car, error) {
	cars := make([]models.Car, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	return cars, nil
}

// ListByClient returns the cars assigned to clientID, ordered by id.
func (r *CarRepository) ListByClient(ctx context.Context, clientID int64) ([]models.Car, error) {
	cars := make([]models.Car, 0)
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id").
		Find(&cars).Error
	if err != nil {
		return nil, fmt.Errorf("list cars for client %d: %w", clientID, err)
	}
	return cars, nil
}

// Get returns one car or ErrCarNotFound.
func (r *CarRepository) Get(ctx context.Context, id int64) (*models.Car, error) {
	var car models.Car
	err := r.db.WithContext(ctx).First(&car, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get car %d: %w", id, err)
	}
	return &car, nil
}

// Create inserts car and fills in its generated id and timestamps.
func (r *CarRepository) Create(ctx context.Context, car *models.Car) error {
	err := r.db.WithContext(ctx).Create(car).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateMatricule
	}
	if err != nil {
		return fmt.Errorf("create car: %w", err)
	}
	return nil
}

// Delete removes a car by id, returning ErrCarNotFound if nothing was deleted.
func (r *CarRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Car{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete car %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCarNotFound
	}
	return nil
}
