package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Shahnab/retrotape/internal/core/services"
)

// Auth is the provider sign-in flow.
type Auth interface {
	LoginURL() (string, error)
	Callback(ctx context.Context, state, code string) error
	IsAuthenticated(ctx context.Context) bool
	Logout(ctx context.Context) error
}

// EndedReporter routes browser end-of-track reports through the audio
// backend so stale reports are filtered.
type EndedReporter interface {
	Ended(tapeID string)
}

// Handler manages the HTTP interface for the desk.
type Handler struct {
	svc    *services.Orchestrator
	auth   Auth
	ended  EndedReporter
	ws     http.Handler
	router chi.Router

	allowedOrigin string
	frontendURL   string
	timeout       time.Duration
}

// Option customizes a Handler.
type Option func(*Handler)

// WithAuth enables the /auth routes.
func WithAuth(a Auth) Option {
	return func(h *Handler) { h.auth = a }
}

// WithEndedReporter sends /player/ended through r instead of straight to the
// player.
func WithEndedReporter(r EndedReporter) Option {
	return func(h *Handler) { h.ended = r }
}

// WithWebsocket mounts ws at /ws.
func WithWebsocket(ws http.Handler) Option {
	return func(h *Handler) { h.ws = ws }
}

// WithCORS sets the allowed origin. Defaults to "*".
func WithCORS(origin string) Option {
	return func(h *Handler) { h.allowedOrigin = origin }
}

// WithFrontendURL is where the auth callback sends the browser afterwards.
func WithFrontendURL(u string) Option {
	return func(h *Handler) { h.frontendURL = u }
}

// WithTimeout bounds non-websocket requests.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc *services.Orchestrator, opts ...Option) *Handler {
	h := &Handler{
		svc:           svc,
		allowedOrigin: "*",
		frontendURL:   "/",
		timeout:       30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.router = h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.cors)

	if h.ws != nil {
		r.Get("/ws", h.ws.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(h.timeout))

		r.Get("/health", h.HealthCheck)

		r.Get("/desk", h.GetDesk)
		r.Post("/desk/search", h.Search)
		r.Post("/desk/background/static", h.StaticBackground)
		r.Post("/desk/background/generate", h.GenerateBackground)

		r.Post("/player/load", h.LoadTape)
		r.Post("/player/play", h.Play)
		r.Post("/player/pause", h.Pause)
		r.Post("/player/stop", h.Stop)
		r.Post("/player/eject", h.Eject)
		r.Post("/player/ended", h.TrackEnded)
		r.Put("/player/volume", h.SetVolume)
		r.Patch("/player", h.PatchPlayer)

		r.Patch("/tapes/{id}", h.PatchTape)
		r.Post("/tapes/{id}/drop", h.DropTape)
		r.Post("/tapes/{id}/annotation", h.AnnotateTape)

		r.Get("/auth/status", h.AuthStatus)
		r.Get("/auth/login", h.Login)
		r.Get("/auth/callback", h.AuthCallback)
		r.Post("/auth/logout", h.Logout)
	})
	return r
}

func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		if h.allowedOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if strings.ToUpper(r.Method) == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Retrotape is rolling",
		"searching": h.svc.Searching(),
	})
}
