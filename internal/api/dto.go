package api

import "github.com/starford/fragments/internal/models"

// Fragment is the metadata record returned by the API (aliased from the
// domain layer).
type Fragment = models.Fragment

// FragmentResponse wraps a single fragment in the success envelope.
type FragmentResponse struct {
	Status   string   `json:"status" example:"ok" validate:"required"`
	Fragment Fragment `json:"fragment" validate:"required"`
}

// FragmentListResponse wraps a fragment listing. Items are plain id
// strings, or full metadata records when expand=1 was requested.
type FragmentListResponse struct {
	Status    string `json:"status" example:"ok" validate:"required"`
	Fragments []any  `json:"fragments" validate:"required"`
}

// StatusResponse is the bare success envelope.
type StatusResponse struct {
	Status string `json:"status" example:"ok" validate:"required"`
}
