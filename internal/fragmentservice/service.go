// Package fragmentservice orchestrates fragment lifecycle operations
// over the storage gateway, enforcing entity invariants on every
// mutation.
package fragmentservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/fragments/internal/apperr"
	"github.com/starford/fragments/internal/models"
	"github.com/starford/fragments/internal/storage"
)

// Service coordinates fragment persistence. Each operation is presented
// as atomic to callers even though metadata and data are written
// sequentially; see Gateway.Verify for how the gap is bounded.
type Service struct {
	gateway *storage.Gateway
	notify  func(kind, id string)
}

// NewService creates a fragment service over the given gateway.
func NewService(gw *storage.Gateway) *Service {
	return &Service{gateway: gw}
}

// SetNotify installs a lifecycle event callback ("created", "updated",
// "deleted"). Used to feed the SSE broker; nil disables events.
func (s *Service) SetNotify(fn func(kind, id string)) {
	s.notify = fn
}

func (s *Service) publish(kind, id string) {
	if s.notify != nil {
		s.notify(kind, id)
	}
}

// Create validates and persists a new fragment with the given type and
// payload. Fails with apperr.ErrValidation for unsupported types and
// apperr.ErrStorage when either persistence step fails.
func (s *Service) Create(ctx context.Context, ownerID, contentType string, data []byte) (*models.Fragment, error) {
	f, err := models.New(models.NewParams{
		OwnerID: ownerID,
		Type:    contentType,
	})
	if err != nil {
		return nil, err
	}
	f.SetPayload(data)

	if err := s.gateway.WriteMetadata(ctx, f); err != nil {
		return nil, fmt.Errorf("%w: write metadata: %v", apperr.ErrStorage, err)
	}
	if err := s.gateway.WriteData(ctx, ownerID, f.ID, data); err != nil {
		return nil, fmt.Errorf("%w: write data: %v", apperr.ErrStorage, err)
	}
	s.publish("created", f.ID)
	return f, nil
}

// Get returns the metadata record for (ownerID, id).
func (s *Service) Get(ctx context.Context, ownerID, id string) (*models.Fragment, error) {
	f, err := s.gateway.ReadMetadata(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: read metadata: %v", apperr.ErrStorage, err)
	}
	return f, nil
}

// GetData returns the fragment and its payload. Metadata present with
// data absent is an internal inconsistency and surfaces as a storage
// error, never as an empty payload.
func (s *Service) GetData(ctx context.Context, ownerID, id string) (*models.Fragment, []byte, error) {
	f, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.gateway.ReadData(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: fragment %s has metadata but no data", apperr.ErrStorage, id)
		}
		return nil, nil, fmt.Errorf("%w: read data: %v", apperr.ErrStorage, err)
	}
	return f, data, nil
}

// ListIDs returns the ids of every fragment owned by ownerID.
func (s *Service) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	ids, err := s.gateway.ListIDs(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", apperr.ErrStorage, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// List returns the full metadata records owned by ownerID.
func (s *Service) List(ctx context.Context, ownerID string) ([]models.Fragment, error) {
	records, err := s.gateway.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", apperr.ErrStorage, err)
	}
	if records == nil {
		records = []models.Fragment{}
	}
	return records, nil
}

// Replace overwrites a fragment's payload. The declared type must match
// the stored type exactly (type changes are never permitted). A
// non-empty ifMatch is compared against the stored checksum and fails
// with apperr.ErrConflict when the fragment changed since it was read;
// an empty ifMatch keeps last-writer-wins semantics.
func (s *Service) Replace(ctx context.Context, ownerID, id, declaredType string, data []byte, ifMatch string) (*models.Fragment, error) {
	f, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if declaredType != f.Type {
		return nil, fmt.Errorf("%w: stored %q, declared %q", apperr.ErrTypeMismatch, f.Type, declaredType)
	}
	if ifMatch != "" && ifMatch != f.Checksum {
		return nil, apperr.ErrConflict
	}

	f.SetPayload(data)
	if err := s.gateway.WriteMetadata(ctx, f); err != nil {
		return nil, fmt.Errorf("%w: write metadata: %v", apperr.ErrStorage, err)
	}
	if err := s.gateway.WriteData(ctx, ownerID, id, data); err != nil {
		return nil, fmt.Errorf("%w: write data: %v", apperr.ErrStorage, err)
	}
	s.publish("updated", id)
	return f, nil
}

// Delete removes a fragment's metadata and payload. Absent ids always
// fail with apperr.ErrNotFound; existence is checked first because the
// gateway's delete is not idempotent.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.gateway.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("%w: delete: %v", apperr.ErrStorage, err)
	}
	s.publish("deleted", id)
	return nil
}
