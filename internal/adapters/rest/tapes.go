package rest

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/gesture"
)

const maxClipBytes = 10 << 20

type dropRequest struct {
	Point  gesture.Point `json:"point"`
	Offset gesture.Point `json:"offset"`
}

type dropResponse struct {
	Loaded bool        `json:"loaded"`
	Desk   domain.Desk `json:"desk"`
}

// PatchTape handles PATCH /tapes/{id}
func (h *Handler) PatchTape(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req placementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.empty() {
		writeErrorWithCode(w, http.StatusBadRequest, "x, y or rotation is required", errCodeInvalidInput)
		return
	}

	p := h.svc.Player()
	desk := p.Snapshot()
	t, ok := desk.Find(id)
	if !ok || (desk.Loaded != nil && desk.Loaded.ID == id) {
		writeServiceError(w, domain.ErrTapeNotFound)
		return
	}
	if req.X != nil || req.Y != nil {
		x, y := t.X, t.Y
		if req.X != nil {
			x = *req.X
		}
		if req.Y != nil {
			y = *req.Y
		}
		if err := p.MoveTape(r.Context(), id, x, y); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if req.Rotation != nil {
		if err := p.RotateTape(r.Context(), id, *req.Rotation); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, p.Snapshot())
}

// DropTape handles POST /tapes/{id}/drop
func (h *Handler) DropTape(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	loaded, err := h.svc.Player().DropTape(r.Context(), chi.URLParam(r, "id"), req.Point, req.Offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dropResponse{Loaded: loaded, Desk: h.svc.Snapshot()})
}

// AnnotateTape handles POST /tapes/{id}/annotation. The body is the raw
// recorded clip.
func (h *Handler) AnnotateTape(w http.ResponseWriter, r *http.Request) {
	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "Content-Type is required", errCodeInvalidInput)
		return
	}

	clip, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxClipBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "clip too large")
		return
	}
	if len(clip) == 0 {
		writeErrorWithCode(w, http.StatusBadRequest, "clip is empty", errCodeInvalidInput)
		return
	}

	a, err := h.svc.Annotate(r.Context(), chi.URLParam(r, "id"), clip, mimeType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
