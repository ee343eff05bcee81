// Package storage provides the fragment persistence layer: a metadata
// store and a raw-byte data store behind a single Gateway facade, both
// addressed by (ownerID, id).
package storage

import (
	"context"

	"github.com/starford/fragments/internal/models"
)

// MetadataStore persists fragment metadata records.
type MetadataStore interface {
	// List returns every fragment record owned by ownerID.
	List(ctx context.Context, ownerID string) ([]models.Fragment, error)
	// Read returns one record, or apperr.ErrNotFound when absent.
	Read(ctx context.Context, ownerID, id string) (*models.Fragment, error)
	// Write upserts a record. Last writer wins; there is no version check
	// at this layer.
	Write(ctx context.Context, f *models.Fragment) error
	// Delete removes a record. Deleting a missing record is an error.
	Delete(ctx context.Context, ownerID, id string) error
	// All returns every record across owners. Used by the startup
	// consistency sweep only.
	All(ctx context.Context) ([]models.Fragment, error)
	// Close releases any underlying resources.
	Close() error
}

// DataStore persists raw fragment payloads.
type DataStore interface {
	// Read returns the payload bytes, or apperr.ErrNotFound when absent.
	Read(ctx context.Context, ownerID, id string) ([]byte, error)
	// Write replaces the payload wholesale.
	Write(ctx context.Context, ownerID, id string, data []byte) error
	// Exists reports whether a payload is stored for (ownerID, id).
	Exists(ctx context.Context, ownerID, id string) (bool, error)
	// Delete removes the payload. Deleting a missing payload is an error.
	Delete(ctx context.Context, ownerID, id string) error
}
