package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fragments/internal/apperr"
	"github.com/starford/fragments/internal/convert"
	"github.com/starford/fragments/internal/fragmentservice"
	"github.com/starford/fragments/internal/mimetype"
)

// maxFragmentSize bounds request bodies on create and update.
const maxFragmentSize = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *fragmentservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *fragmentservice.Service) *Handler {
	return &Handler{svc: svc}
}

// splitIDExt separates an optional conversion extension from the id
// segment. Fragment ids are UUIDs and never contain dots, so everything
// after the first dot is the extension.
func splitIDExt(raw string) (id, ext string) {
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

// parseIfMatch extracts the comparison token from an If-Match header:
// quotes and the weak-validator prefix (W/"...") are stripped. "*" means
// "if the fragment exists", which the replace path checks anyway, so it
// imposes no checksum condition. Empty result means unconditional.
func parseIfMatch(header string) string {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return ""
	}
	header = strings.TrimPrefix(header, "W/")
	return strings.Trim(header, `"`)
}

// baseURL reconstructs the request's external base URL for the Location
// header.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}

// CreateFragment handles POST /v1/fragments.
//
//	@Summary		Create a fragment from the raw request body
//	@Tags			fragments
//	@Accept			*/*
//	@Produce		json
//	@Success		201	{object}	FragmentResponse
//	@Failure		415	{object}	errResponse
//	@Security		BasicAuth
//	@Router			/fragments [post]
func (h *Handler) CreateFragment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFragmentSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	contentType := r.Header.Get("Content-Type")
	f, err := h.svc.Create(r.Context(), OwnerID(r), contentType, data)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported fragment type: %s", contentType))
		default:
			slog.Error("create fragment failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/v1/fragments/%s", baseURL(r), f.ID))
	writeJSON(w, http.StatusCreated, ok(map[string]any{"fragment": f}))
}

// ListFragments handles GET /v1/fragments.
//
//	@Summary		List the owner's fragments
//	@Tags			fragments
//	@Produce		json
//	@Param			expand	query		int	false	"1 to return full metadata records"
//	@Success		200		{object}	FragmentListResponse
//	@Security		BasicAuth
//	@Router			/fragments [get]
func (h *Handler) ListFragments(w http.ResponseWriter, r *http.Request) {
	expand := r.URL.Query().Get("expand") == "1"

	var fragments any
	var err error
	if expand {
		fragments, err = h.svc.List(r.Context(), OwnerID(r))
	} else {
		fragments, err = h.svc.ListIDs(r.Context(), OwnerID(r))
	}
	if err != nil {
		slog.Error("list fragments failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, ok(map[string]any{"fragments": fragments}))
}

// GetFragment handles GET /v1/fragments/{id} and GET /v1/fragments/{id}.{ext}.
// Without an extension the stored representation is returned unchanged;
// with one, the payload is converted to the representation the extension
// implies.
//
//	@Summary		Get a fragment's data, optionally converted
//	@Tags			fragments
//	@Produce		*/*
//	@Param			id	path	string	true	"Fragment id, optionally with extension"
//	@Success		200	"Raw or converted payload"
//	@Failure		404	{object}	errResponse
//	@Failure		415	{object}	errResponse
//	@Security		BasicAuth
//	@Router			/fragments/{id} [get]
func (h *Handler) GetFragment(w http.ResponseWriter, r *http.Request) {
	id, ext := splitIDExt(chi.URLParam(r, "id"))

	f, data, err := h.svc.GetData(r.Context(), OwnerID(r), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "fragment not found")
		} else {
			slog.Error("get fragment failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if ext == "" {
		w.Header().Set("Content-Type", f.Type)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	target, known := mimetype.ByExtension(ext)
	if !known {
		writeError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("cannot convert from %s to .%s", f.MimeType(), ext))
		return
	}
	out, resultType, err := convert.Convert(f.Type, data, target)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrUnsupportedConversion):
			writeError(w, http.StatusUnsupportedMediaType,
				fmt.Sprintf("cannot convert from %s to .%s", f.MimeType(), ext))
		default:
			slog.Error("fragment conversion failed",
				slog.String("id", id),
				slog.String("target", target),
				slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", resultType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// GetFragmentInfo handles GET /v1/fragments/{id}/info.
//
//	@Summary		Get a fragment's metadata
//	@Tags			fragments
//	@Produce		json
//	@Param			id	path		string	true	"Fragment id"
//	@Success		200	{object}	FragmentResponse
//	@Failure		404	{object}	errResponse
//	@Security		BasicAuth
//	@Router			/fragments/{id}/info [get]
func (h *Handler) GetFragmentInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, err := h.svc.Get(r.Context(), OwnerID(r), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "fragment not found")
		} else {
			slog.Error("get fragment info failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, ok(map[string]any{"fragment": f}))
}

// UpdateFragment handles PUT /v1/fragments/{id}.
//
//	@Summary		Replace a fragment's payload
//	@Tags			fragments
//	@Accept			*/*
//	@Produce		json
//	@Param			id			path	string	true	"Fragment id"
//	@Param			If-Match	header	string	false	"Checksum for optimistic concurrency"
//	@Success		200	{object}	FragmentResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BasicAuth
//	@Router			/fragments/{id} [put]
func (h *Handler) UpdateFragment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFragmentSize)
	id := chi.URLParam(r, "id")

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	ifMatch := parseIfMatch(r.Header.Get("If-Match"))

	f, err := h.svc.Replace(r.Context(), OwnerID(r), id, r.Header.Get("Content-Type"), data, ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "fragment not found")
		case errors.Is(err, apperr.ErrTypeMismatch):
			writeError(w, http.StatusBadRequest, "fragment type cannot be changed")
		case errors.Is(err, apperr.ErrConflict):
			writeError(w, http.StatusConflict, "checksum mismatch")
		default:
			slog.Error("update fragment failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, ok(map[string]any{"fragment": f}))
}

// DeleteFragment handles DELETE /v1/fragments/{id}.
//
//	@Summary		Delete a fragment
//	@Tags			fragments
//	@Produce		json
//	@Param			id	path		string	true	"Fragment id"
//	@Success		200	{object}	StatusResponse
//	@Failure		404	{object}	errResponse
//	@Security		BasicAuth
//	@Router			/fragments/{id} [delete]
func (h *Handler) DeleteFragment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), OwnerID(r), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "fragment not found")
		} else {
			slog.Error("delete fragment failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, ok(nil))
}
