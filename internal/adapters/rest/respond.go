package rest

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/services"
)

// Error codes returned in the "code" field.
const (
	errCodeInvalidInput     = "INVALID_INPUT"
	errCodeDuplicateArtist  = "DUPLICATE_ARTIST"
	errCodeNoSongsFound     = "NO_SONGS_FOUND"
	errCodeSearchBusy       = "SEARCH_BUSY"
	errCodeFeatureDisabled  = "FEATURE_DISABLED"
	errCodeNotAuthenticated = "NOT_AUTHENTICATED"
	errCodeTapeNotFound     = "TAPE_NOT_FOUND"
	errCodePlayerOccupied   = "PLAYER_OCCUPIED"
	errCodePlayerEmpty      = "PLAYER_EMPTY"
	errCodeInvalidState     = "INVALID_STATE"
	errCodeInternal         = "INTERNAL"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WARN rest: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeServiceError maps core errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.Printf("ERROR rest: %v", err)
	}
	writeErrorWithCode(w, status, err.Error(), code)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrEmptyArtist):
		return http.StatusBadRequest, errCodeInvalidInput
	case errors.Is(err, domain.ErrDuplicateArtist):
		return http.StatusConflict, errCodeDuplicateArtist
	case errors.Is(err, domain.ErrNoSongsFound):
		return http.StatusNotFound, errCodeNoSongsFound
	case errors.Is(err, domain.ErrSearchBusy):
		return http.StatusTooManyRequests, errCodeSearchBusy
	case errors.Is(err, domain.ErrFeatureDisabled), errors.Is(err, domain.ErrNotConfigured):
		return http.StatusNotImplemented, errCodeFeatureDisabled
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrCredentialExpired):
		return http.StatusUnauthorized, errCodeNotAuthenticated
	case errors.Is(err, domain.ErrTapeNotFound):
		return http.StatusNotFound, errCodeTapeNotFound
	case errors.Is(err, domain.ErrPlayerOccupied):
		return http.StatusConflict, errCodePlayerOccupied
	case errors.Is(err, domain.ErrPlayerEmpty):
		return http.StatusConflict, errCodePlayerEmpty
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest, errCodeInvalidState
	}
	return http.StatusInternalServerError, errCodeInternal
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// decodeJSON writes the error response itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeInvalidInput)
		return false
	}
	return true
}
