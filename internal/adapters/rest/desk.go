package rest

import (
	"net/http"
	"strings"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

type searchRequest struct {
	Artist string `json:"artist"`
}

type searchResponse struct {
	Tapes   []domain.Tape `json:"tapes"`
	Source  string        `json:"source,omitempty"`
	Notices []string      `json:"notices,omitempty"`
	Desk    domain.Desk   `json:"desk"`
}

type backgroundResponse struct {
	Background string `json:"background"`
}

// GetDesk handles GET /desk
func (h *Handler) GetDesk(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// Search handles POST /desk/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Artist) == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "artist is required", errCodeInvalidInput)
		return
	}

	res, err := h.svc.Search(r.Context(), req.Artist)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Tapes:   res.Tapes,
		Source:  res.Source,
		Notices: res.Notices,
		Desk:    h.svc.Snapshot(),
	})
}

// StaticBackground handles POST /desk/background/static
func (h *Handler) StaticBackground(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, backgroundResponse{Background: h.svc.NextStaticBackground(r.Context())})
}

// GenerateBackground handles POST /desk/background/generate
func (h *Handler) GenerateBackground(w http.ResponseWriter, r *http.Request) {
	bg, err := h.svc.GenerateBackground(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, backgroundResponse{Background: bg})
}
