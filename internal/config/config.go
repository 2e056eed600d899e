// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// placeholderClientID is shipped in sample env files; treat it as unset.
const placeholderClientID = "YOUR_SPOTIFY_CLIENT_ID_HERE"

// Config holds every setting the API server needs.
type Config struct {
	Port          string
	DBPath        string
	StorageDriver string
	RedisURL      string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURL  string
	SpotifyAPIURL       string
	SpotifyAuthURL      string
	SpotifyTokenURL     string
	SpotifyMaxRetries   int
	SpotifyBackoff      time.Duration

	ITunesSearchURL string

	Annotator     string
	GeminiAPIKey  string
	GeminiBaseURL string
	OllamaHost    string

	AudioBackend      string
	AutoplayDelay     time.Duration
	AnnotationWorkers int
	AnnotationQueue   int

	StateSecret       string
	FrontendURL       string
	CORSAllowedOrigin string
}

// Load builds a Config from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "retrotape.db"),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite")),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),

		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURL:  getEnv("SPOTIFY_REDIRECT_URL", "http://localhost:8080/auth/callback"),
		SpotifyAPIURL:       getEnv("SPOTIFY_API_URL", "https://api.spotify.com/v1"),
		SpotifyAuthURL:      getEnv("SPOTIFY_AUTH_URL", "https://accounts.spotify.com/authorize"),
		SpotifyTokenURL:     getEnv("SPOTIFY_TOKEN_URL", "https://accounts.spotify.com/api/token"),
		SpotifyMaxRetries:   getEnvInt("SPOTIFY_MAX_RETRIES", 3),
		SpotifyBackoff:      time.Duration(getEnvInt("SPOTIFY_RETRY_BACKOFF_MS", 200)) * time.Millisecond,

		ITunesSearchURL: getEnv("ITUNES_SEARCH_URL", "https://itunes.apple.com/search"),

		Annotator:     strings.ToLower(getEnv("ANNOTATOR", "gemini")),
		GeminiAPIKey:  getEnv("API_KEY", os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OllamaHost:    os.Getenv("OLLAMA_HOST"),

		AudioBackend:      strings.ToLower(getEnv("AUDIO_BACKEND", "remote")),
		AutoplayDelay:     time.Duration(getEnvInt("AUTOPLAY_DELAY_MS", 800)) * time.Millisecond,
		AnnotationWorkers: getEnvInt("ANNOTATION_WORKERS", 2),
		AnnotationQueue:   getEnvInt("ANNOTATION_QUEUE", 100),

		StateSecret:       os.Getenv("STATE_SECRET"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
	}

	switch cfg.StorageDriver {
	case "sqlite", "redis":
	default:
		return cfg, fmt.Errorf("config: unknown storage driver %q", cfg.StorageDriver)
	}
	switch cfg.Annotator {
	case "gemini", "ollama", "none":
	default:
		return cfg, fmt.Errorf("config: unknown annotator %q", cfg.Annotator)
	}
	switch cfg.AudioBackend {
	case "remote", "speaker":
	default:
		return cfg, fmt.Errorf("config: unknown audio backend %q", cfg.AudioBackend)
	}
	if cfg.AnnotationWorkers < 1 {
		cfg.AnnotationWorkers = 1
	}
	return cfg, nil
}

// SpotifyConfigured reports whether real client credentials were supplied.
func (c Config) SpotifyConfigured() bool {
	id := strings.TrimSpace(c.SpotifyClientID)
	return id != "" && id != placeholderClientID && strings.TrimSpace(c.SpotifyClientSecret) != ""
}

// GeminiConfigured reports whether a Gemini key is present.
func (c Config) GeminiConfigured() bool {
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("WARN config: ignoring invalid %s=%q", key, raw)
		return defaultValue
	}
	return n
}
