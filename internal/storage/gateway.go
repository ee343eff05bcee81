package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/fragments/internal/models"
)

// Gateway is the single entry point the service layer uses for
// persistence. It composes a MetadataStore and a DataStore, which may be
// backed by different physical engines.
type Gateway struct {
	meta MetadataStore
	data DataStore
}

// NewGateway creates a Gateway over the given stores.
func NewGateway(meta MetadataStore, data DataStore) *Gateway {
	return &Gateway{meta: meta, data: data}
}

// ListIDs returns the ids of every fragment owned by ownerID.
func (g *Gateway) ListIDs(ctx context.Context, ownerID string) ([]string, error) {
	records, err := g.meta.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids, nil
}

// List returns the full metadata records owned by ownerID.
func (g *Gateway) List(ctx context.Context, ownerID string) ([]models.Fragment, error) {
	return g.meta.List(ctx, ownerID)
}

// ReadMetadata returns one fragment record, or apperr.ErrNotFound.
func (g *Gateway) ReadMetadata(ctx context.Context, ownerID, id string) (*models.Fragment, error) {
	return g.meta.Read(ctx, ownerID, id)
}

// WriteMetadata upserts a fragment record. Last writer wins.
func (g *Gateway) WriteMetadata(ctx context.Context, f *models.Fragment) error {
	return g.meta.Write(ctx, f)
}

// ReadData returns the payload for (ownerID, id), or apperr.ErrNotFound.
func (g *Gateway) ReadData(ctx context.Context, ownerID, id string) ([]byte, error) {
	return g.data.Read(ctx, ownerID, id)
}

// WriteData replaces the payload for (ownerID, id) wholesale.
func (g *Gateway) WriteData(ctx context.Context, ownerID, id string, data []byte) error {
	return g.data.Write(ctx, ownerID, id, data)
}

// Delete removes metadata and data for (ownerID, id). Metadata goes
// first so a fault between the two leaves an invisible orphaned payload
// rather than a record whose payload is gone. Not idempotent; callers
// pre-check existence.
func (g *Gateway) Delete(ctx context.Context, ownerID, id string) error {
	if err := g.meta.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	if err := g.data.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete data: %w", err)
	}
	return nil
}

// Verify sweeps every metadata record and reports the ones whose payload
// is missing. Metadata and data are written sequentially, not atomically,
// so a crash between the two can strand a record; this sweep surfaces
// that at startup instead of letting reads hit it first. Errors beyond
// per-record existence checks abort the sweep.
func (g *Gateway) Verify(ctx context.Context, logger *slog.Logger) error {
	records, err := g.meta.All(ctx)
	if err != nil {
		return fmt.Errorf("verify: list metadata: %w", err)
	}
	orphans := 0
	for _, r := range records {
		ok, err := g.data.Exists(ctx, r.OwnerID, r.ID)
		if err != nil {
			return fmt.Errorf("verify: check %s: %w", r.ID, err)
		}
		if !ok {
			orphans++
			logger.Warn("fragment metadata has no payload",
				slog.String("id", r.ID),
				slog.String("type", r.Type))
		}
	}
	if orphans > 0 {
		logger.Warn("consistency sweep found orphaned metadata",
			slog.Int("count", orphans),
			slog.Int("total", len(records)))
	}
	return nil
}
