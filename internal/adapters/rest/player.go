package rest

import (
	"net/http"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/gesture"
)

type tapeRequest struct {
	TapeID string `json:"tapeId"`
}

// volumeRequest carries either an absolute volume or a pointer position on
// the slider track.
type volumeRequest struct {
	Volume   *float64     `json:"volume"`
	PointerY *float64     `json:"pointerY"`
	Track    *domain.Rect `json:"track"`
}

type volumeResponse struct {
	Volume float64 `json:"volume"`
}

// placementRequest is a partial position update.
type placementRequest struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Rotation *float64 `json:"rotation"`
}

func (p placementRequest) empty() bool {
	return p.X == nil && p.Y == nil && p.Rotation == nil
}

// LoadTape handles POST /player/load
func (h *Handler) LoadTape(w http.ResponseWriter, r *http.Request) {
	var req tapeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TapeID == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "tapeId is required", errCodeInvalidInput)
		return
	}
	h.respondDesk(w, h.svc.Player().Load(r.Context(), req.TapeID))
}

// Play handles POST /player/play
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	h.respondDesk(w, h.svc.Player().Play(r.Context()))
}

// Pause handles POST /player/pause
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.respondDesk(w, h.svc.Player().Pause(r.Context()))
}

// Stop handles POST /player/stop
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.respondDesk(w, h.svc.Player().Stop(r.Context()))
}

// Eject handles POST /player/eject
func (h *Handler) Eject(w http.ResponseWriter, r *http.Request) {
	h.respondDesk(w, h.svc.Player().Eject(r.Context()))
}

// TrackEnded handles POST /player/ended. Reports for anything other than
// the loaded tape are ignored.
func (h *Handler) TrackEnded(w http.ResponseWriter, r *http.Request) {
	var req tapeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.ended != nil {
		h.ended.Ended(req.TapeID)
	} else {
		h.svc.Player().TrackEnded(r.Context(), req.TapeID)
	}
	w.WriteHeader(http.StatusAccepted)
}

// SetVolume handles PUT /player/volume
func (h *Handler) SetVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var v float64
	switch {
	case req.Volume != nil:
		v = *req.Volume
	case req.PointerY != nil && req.Track != nil:
		v = gesture.VolumeAt(*req.PointerY, *req.Track)
	default:
		writeErrorWithCode(w, http.StatusBadRequest, "volume or pointerY with track is required", errCodeInvalidInput)
		return
	}
	writeJSON(w, http.StatusOK, volumeResponse{Volume: h.svc.Player().SetVolume(r.Context(), v)})
}

// PatchPlayer handles PATCH /player
func (h *Handler) PatchPlayer(w http.ResponseWriter, r *http.Request) {
	var req placementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.empty() {
		writeErrorWithCode(w, http.StatusBadRequest, "x, y or rotation is required", errCodeInvalidInput)
		return
	}

	p := h.svc.Player()
	cur := p.Snapshot().Player
	if req.X != nil || req.Y != nil {
		x, y := cur.X, cur.Y
		if req.X != nil {
			x = *req.X
		}
		if req.Y != nil {
			y = *req.Y
		}
		if err := p.MovePlayer(r.Context(), x, y); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if req.Rotation != nil {
		if err := p.RotatePlayer(r.Context(), *req.Rotation); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, p.Snapshot())
}

func (h *Handler) respondDesk(w http.ResponseWriter, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}
