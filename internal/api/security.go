package api

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/omii/storefront/internal/domain/auth"
)

// identityKey is the context key for the authenticated identity.
type identityKey struct{}

// identityFrom extracts the authenticated identity from the context.
func identityFrom(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return id
}

// authenticate validates the api_key header by computing its HMAC-SHA256
// under the configured pepper, looking it up, and performing a
// constant-time comparison to prevent timing side-channels. The resolved
// identity is stored in the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		hash := auth.HashKey(h.pepper, key)
		id, err := h.apikeys.FindByHash(r.Context(), hash)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		stored, err := hex.DecodeString(id.KeyHash)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		computed, err := hex.DecodeString(hash)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if subtle.ConstantTimeCompare(computed, stored) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireStaff guards order-mutation routes. It writes a 403 and returns
// nil when the caller's role is not allowed.
func requireStaff(w http.ResponseWriter, r *http.Request, roles ...auth.Role) *auth.Identity {
	id := identityFrom(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	for _, role := range roles {
		if id.Role == role {
			return id
		}
	}
	writeError(w, http.StatusForbidden, "forbidden")
	return nil
}
