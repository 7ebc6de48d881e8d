// internal/store/backend.go
package store

import (
	"context"

	"autoflow/internal/models"
)

// Backend persists the application collection as a whole. Every mutating
// operation saves the full ordered collection; every read loads it fresh,
// so separate process instances sharing one backend observe each other's
// writes. There is no cross-process locking: concurrent writers can race
// on the final save and one can clobber the other.
type Backend interface {
	// Load returns the full collection in insertion order. A missing
	// backing store is an empty collection, not an error.
	Load(ctx context.Context) ([]models.CreditApplication, error)
	// Save replaces the persisted collection.
	Save(ctx context.Context, apps []models.CreditApplication) error
}
