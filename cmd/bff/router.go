package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config holds the BFF settings.
type Config struct {
	BackendURL    string
	Port          string
	ImageDir      string
	AllowedOrigin string
}

func setupRouter(cfg Config) (*chi.Mux, error) {
	backend, err := newReverseProxy(cfg.BackendURL)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg.AllowedOrigin))

	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, cfg.BackendURL)
	})
	r.Get("/", rootHandler)

	r.Handle("/image/*", http.StripPrefix("/image/", http.FileServer(http.Dir(cfg.ImageDir))))

	// Upgrades pass through the proxy untouched.
	r.Handle("/ws", backend)
	r.Mount("/api", http.StripPrefix("/api", backend))

	return r, nil
}

func newReverseProxy(target string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bff: invalid backend URL %q", target)
	}
	proxy := httputil.NewSingleHostReverseProxy(u)

	origDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		origDirector(req)
		req.Header.Set("X-Forwarded-Host", req.Host)
	}
	// The BFF is the browser-facing origin; its own CORS headers are the only ones sent.
	proxy.ModifyResponse = func(resp *http.Response) error {
		for k := range resp.Header {
			if strings.HasPrefix(k, "Access-Control-") {
				resp.Header.Del(k)
			}
		}
		return nil
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("WARN bff: proxy to %s: %v", target, err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
	}
	return proxy, nil
}

func corsMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			if allowedOrigin != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if strings.ToUpper(r.Method) == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// healthHandler returns the BFF's own health status
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "bff"})
}

// readyHandler checks if the BFF can reach the backend
func readyHandler(w http.ResponseWriter, r *http.Request, backendURL string) {
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, backendURL+"/health", nil)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "error": err.Error()})
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "error": err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "backend_status": resp.StatusCode})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "backend": "connected"})
}

// rootHandler provides basic service info
func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":     "retrotape-bff",
		"version":     "0.1.0",
		"description": "Backend-for-Frontend for the cassette desk",
	})
}
