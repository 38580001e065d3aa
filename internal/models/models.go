// Package models defines the data structures shared across the car service.
//
// Two entities exist:
//   - Client is owned by the remote client service. service-car never stores clients; it only
//     reads them through the client API and serializes them back out.
//   - Car is owned by service-car and maps to the "cars" table. GORM uses the struct tags
//     to build queries; the JSON tags define the wire shape.
package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// Client represents a customer of the rental service.
// The JSON shape matches what the client service returns, e.g. {"id":1,"name":"Alice","age":31}.
//
// Age is kept as the raw JSON value the client service sent so it is relayed byte for byte:
// an age of 0 stays in the output, a fractional or string age is not rejected, and a client
// without an age is written without one.
type Client struct {
	ID   int64           `json:"id"`
	Name string          `json:"name"`
	Age  json.RawMessage `json:"age,omitempty"`
}

// Car is a vehicle in the rental fleet, assigned to one client.
// ClientID is a plain reference: the clients table lives in another service, so there is
// no foreign key and no GORM relationship here.
type Car struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Brand     string    `gorm:"not null" json:"brand"`
	Model     string    `gorm:"not null" json:"model"`
	Matricule string    `gorm:"not null;uniqueIndex:idx_cars_matricule" json:"matricule"` // Registration plate
	ClientID  int64     `gorm:"not null;index:idx_cars_client_id" json:"client_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
