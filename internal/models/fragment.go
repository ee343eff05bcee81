// Package models defines the domain types for the fragments service.
package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/fragments/internal/apperr"
	"github.com/starford/fragments/internal/checksum"
	"github.com/starford/fragments/internal/mimetype"
)

// Fragment represents one stored, owner-scoped, typed payload. ID, OwnerID,
// Type and Created are immutable after construction; Size, Checksum and
// Updated advance together on every payload write.
type Fragment struct {
	ID       string    `json:"id"`
	OwnerID  string    `json:"ownerId"`
	Type     string    `json:"type"`
	Size     int64     `json:"size"`
	Checksum string    `json:"checksum,omitempty"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// NewParams carries the construction inputs for a Fragment. ID, Created
// and Updated are optional; zero values are filled in.
type NewParams struct {
	ID      string
	OwnerID string
	Type    string
	Size    int64
	Created time.Time
	Updated time.Time
}

// Validate implements the construction rules: owner and type are
// required, the type must be a supported source, and size must be
// non-negative.
func (p NewParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.OwnerID, validation.Required),
		validation.Field(&p.Type, validation.Required, validation.By(supportedType)),
		validation.Field(&p.Size, validation.Min(int64(0))),
	)
}

func supportedType(value any) error {
	t, _ := value.(string)
	if !mimetype.IsSupported(t) {
		return fmt.Errorf("unsupported fragment type: %s", t)
	}
	return nil
}

// New constructs a validated Fragment. A fresh UUID is generated when the
// id is omitted; timestamps default to now, with updated never preceding
// created.
func New(p NewParams) (*Fragment, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Created.IsZero() {
		p.Created = time.Now().UTC()
	}
	if p.Updated.IsZero() || p.Updated.Before(p.Created) {
		p.Updated = p.Created
	}
	return &Fragment{
		ID:      p.ID,
		OwnerID: p.OwnerID,
		Type:    p.Type,
		Size:    p.Size,
		Created: p.Created,
		Updated: p.Updated,
	}, nil
}

// MimeType returns the fragment's media type with any parameters removed
// (e.g. "text/plain; charset=utf-8" becomes "text/plain").
func (f *Fragment) MimeType() string {
	return mimetype.Canonical(f.Type)
}

// IsText reports whether the fragment holds textual content.
func (f *Fragment) IsText() bool {
	return mimetype.IsText(f.Type)
}

// Formats returns the ordered representations reachable from the stored
// type. The stored type itself is always among them.
func (f *Fragment) Formats() []string {
	return mimetype.Targets(f.Type)
}

// SetPayload records a payload write: size, checksum and updated advance
// together so the metadata never disagrees with the stored bytes.
func (f *Fragment) SetPayload(data []byte) {
	f.Size = int64(len(data))
	f.Checksum = checksum.Sum(data)
	f.Updated = time.Now().UTC()
}
