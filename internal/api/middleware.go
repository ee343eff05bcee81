// Package api implements the fragments REST API using chi.
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/starford/fragments/internal/checksum"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
	AuthModeBasic    = "basic"
)

// AuthConfig controls how requests are authenticated and how the owner
// identity is derived. The rest of the service only ever sees the opaque
// owner id; two distinct ids are distinct, non-colluding owners.
type AuthConfig struct {
	Mode  string
	Token string            // bearer token for token mode
	Users map[string]string // username -> password for basic mode
}

type ctxKey int

const ownerIDKey ctxKey = iota

// OwnerID returns the authenticated owner id stored in the request
// context by AuthMiddleware. Empty outside an authenticated request.
func OwnerID(r *http.Request) string {
	id, _ := r.Context().Value(ownerIDKey).(string)
	return id
}

func withOwnerID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ownerIDKey, id))
}

// ownerHash derives the opaque owner id from the authenticated principal.
// Hashing keeps usernames out of storage keys and log lines.
func ownerHash(principal string) string {
	return checksum.Sum([]byte(principal))
}

// LocalOwnerID is the owner id used when authentication is disabled and
// by local single-principal surfaces (MCP stdio).
func LocalOwnerID() string {
	return ownerHash("anonymous")
}

// AuthMiddleware returns middleware that authenticates the request and
// stores the derived owner id in the context.
//
// Modes: "disabled" passes everything through under a fixed anonymous
// owner (local development); "token" requires a Bearer token; "basic"
// requires HTTP Basic credentials from the configured user set.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch cfg.Mode {
			case AuthModeToken:
				auth := r.Header.Get("Authorization")
				token := strings.TrimPrefix(auth, "Bearer ")
				if !strings.HasPrefix(auth, "Bearer ") ||
					subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				next.ServeHTTP(w, withOwnerID(r, ownerHash(token)))
			case AuthModeBasic:
				user, pass, okAuth := r.BasicAuth()
				want, known := cfg.Users[user]
				if !okAuth || !known ||
					subtle.ConstantTimeCompare([]byte(pass), []byte(want)) != 1 {
					w.Header().Set("WWW-Authenticate", `Basic realm="fragments"`)
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				next.ServeHTTP(w, withOwnerID(r, ownerHash(user)))
			default:
				next.ServeHTTP(w, withOwnerID(r, ownerHash("anonymous")))
			}
		})
	}
}
