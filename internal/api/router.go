package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fragments/internal/fragmentservice"
)

// NewRouter creates a chi router with all fragment routes mounted behind
// the auth middleware. sseHandler, if non-nil, is mounted at GET /events
// inside the auth group.
func NewRouter(svc *fragmentservice.Service, auth AuthConfig, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(auth))

	// Fragment CRUD. GET /fragments/{id} also serves the converted
	// representation when the id carries an extension (e.g. {id}.html).
	r.Post("/fragments", h.CreateFragment)
	r.Get("/fragments", h.ListFragments)
	r.Get("/fragments/{id}/info", h.GetFragmentInfo)
	r.Get("/fragments/{id}", h.GetFragment)
	r.Put("/fragments/{id}", h.UpdateFragment)
	r.Delete("/fragments/{id}", h.DeleteFragment)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
