package rest

import (
	"log"
	"net/http"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

type authStatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

func (h *Handler) requireAuth(w http.ResponseWriter) bool {
	if h.auth == nil {
		writeServiceError(w, domain.ErrFeatureDisabled)
		return false
	}
	return true
}

// AuthStatus handles GET /auth/status
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	ok := h.auth != nil && h.auth.IsAuthenticated(r.Context())
	writeJSON(w, http.StatusOK, authStatusResponse{Authenticated: ok})
}

// Login handles GET /auth/login by redirecting to the provider.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w) {
		return
	}
	u, err := h.auth.LoginURL()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

// AuthCallback handles GET /auth/callback
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w) {
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		log.Printf("WARN rest: provider refused authorization: %s", e)
		writeErrorWithCode(w, http.StatusUnauthorized, "authorization refused: "+e, errCodeNotAuthenticated)
		return
	}
	if q.Get("code") == "" || q.Get("state") == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "code and state are required", errCodeInvalidInput)
		return
	}
	if err := h.auth.Callback(r.Context(), q.Get("state"), q.Get("code")); err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, h.frontendURL, http.StatusFound)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.requireAuth(w) {
		return
	}
	if err := h.auth.Logout(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
