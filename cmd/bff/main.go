// Package main provides the BFF (Backend-for-Frontend) for Retrotape. It
// serves the bundled desk backdrops and forwards API and websocket traffic
// to the desk API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg := Config{
		BackendURL:    getEnv("BACKEND_URL", "http://backend:8080"),
		Port:          getEnv("PORT", "3000"),
		ImageDir:      getEnv("IMAGE_DIR", "./image"),
		AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
	}

	log.Printf("Retrotape BFF starting: backend=%s port=%s images=%s", cfg.BackendURL, cfg.Port, cfg.ImageDir)

	if err := waitForBackend(cfg.BackendURL, 30*time.Second); err != nil {
		log.Printf("WARN bff: backend not reachable: %v (continuing anyway)", err)
	} else {
		log.Println("Backend health check passed")
	}

	router, err := setupRouter(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// No WriteTimeout: websocket connections are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("BFF is running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down BFF...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// waitForBackend polls the backend health endpoint until it responds or times out
func waitForBackend(backendURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(backendURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}

	return fmt.Errorf("backend not available after %v", timeout)
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
