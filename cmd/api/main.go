package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Shahnab/retrotape/internal/adapters/audio"
	"github.com/Shahnab/retrotape/internal/adapters/gemini"
	"github.com/Shahnab/retrotape/internal/adapters/itunes"
	"github.com/Shahnab/retrotape/internal/adapters/ollama"
	"github.com/Shahnab/retrotape/internal/adapters/realtime"
	"github.com/Shahnab/retrotape/internal/adapters/redisstore"
	"github.com/Shahnab/retrotape/internal/adapters/rest"
	"github.com/Shahnab/retrotape/internal/adapters/spotify"
	"github.com/Shahnab/retrotape/internal/adapters/sqlite"
	"github.com/Shahnab/retrotape/internal/config"
	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/layout"
	"github.com/Shahnab/retrotape/internal/core/ports"
	"github.com/Shahnab/retrotape/internal/core/services"
	"github.com/Shahnab/retrotape/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// -- Storage
	db, err := sqlite.NewAdapter(cfg.DBPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	defer db.Close()

	var credentials ports.CredentialStore = db
	if cfg.StorageDriver == "redis" {
		store, err := redisstore.Open(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		defer store.Close()
		credentials = store
	}

	// -- Realtime
	hub := realtime.NewHub()
	go hub.Run(ctx)

	// -- Audio
	var player ports.AudioPlayer
	var remote *audio.Remote
	switch cfg.AudioBackend {
	case "speaker":
		speaker, err := audio.NewSpeaker()
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		player = speaker
	default:
		remote = audio.NewRemote(hub)
		player = remote
	}

	// -- Providers
	httpClient := &http.Client{Timeout: 15 * time.Second}
	scatter := layout.NewScatterer(time.Now().UnixNano())

	var attempts []services.Attempt
	var auth *spotify.Authenticator
	if cfg.SpotifyConfigured() {
		auth = spotify.NewAuthenticator(spotify.AuthConfig{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
			RedirectURL:  cfg.SpotifyRedirectURL,
			AuthURL:      cfg.SpotifyAuthURL,
			TokenURL:     cfg.SpotifyTokenURL,
			StateSecret:  cfg.StateSecret,
		}, credentials, nil)
		client := spotify.NewClient(httpClient, cfg.SpotifyAPIURL, auth,
			spotify.WithRetry(cfg.SpotifyMaxRetries, cfg.SpotifyBackoff))
		attempts = append(attempts, services.Attempt{Provider: client, Limit: services.PrimaryLimit})
	} else {
		log.Println("WARN api: Spotify credentials not set, searching iTunes only")
	}
	attempts = append(attempts, services.Attempt{
		Provider: itunes.NewClient(httpClient, cfg.ITunesSearchURL),
		Limit:    services.SecondaryLimit,
	})
	catalog := services.NewCatalog(scatter.Colors, attempts...)

	// -- Core
	desk := domain.NewDesk(uuid.NewString())
	desk = desk.WithBackground(services.StaticBackgrounds[0])
	deck := services.NewPlayer(desk, player, scatter,
		services.WithPublisher(hub),
		services.WithAutoplayDelay(cfg.AutoplayDelay),
	)

	var orchOpts []services.OrchestratorOption
	var annotator ports.Annotator
	switch cfg.Annotator {
	case "gemini":
		if cfg.GeminiConfigured() {
			g, err := gemini.NewClient(ctx, cfg.GeminiBaseURL, cfg.GeminiAPIKey)
			if err != nil {
				log.Fatalf("FATAL: %v", err)
			}
			annotator = g
			orchOpts = append(orchOpts, services.WithBackgrounds(g))
		} else {
			log.Println("WARN api: API_KEY not set, annotation and generated backgrounds are off")
		}
	case "ollama":
		annotator = ollama.NewClient(cfg.OllamaHost)
	}

	if annotator != nil {
		pool := worker.NewPool(annotator, db, deck, cfg.AnnotationQueue)
		pool.Start(ctx, cfg.AnnotationWorkers)
		defer pool.Stop()
		orchOpts = append(orchOpts, services.WithAnnotator(annotator), services.WithAnnotationQueue(pool))
	}
	svc := services.NewOrchestrator(deck, catalog, scatter, orchOpts...)

	// -- HTTP
	var ended realtime.EndedReporter
	handlerOpts := []rest.Option{
		rest.WithCORS(cfg.CORSAllowedOrigin),
		rest.WithFrontendURL(cfg.FrontendURL),
	}
	if remote != nil {
		ended = remote
		handlerOpts = append(handlerOpts, rest.WithEndedReporter(remote))
	}
	if auth != nil {
		handlerOpts = append(handlerOpts, rest.WithAuth(auth))
	}
	ws := realtime.NewServer(hub, deck, ended, cfg.CORSAllowedOrigin)
	handlerOpts = append(handlerOpts, rest.WithWebsocket(http.HandlerFunc(ws.HandleWS)))
	handler := rest.NewHandler(svc, handlerOpts...)

	log.Printf("Retrotape API is running on http://localhost:%s (audio=%s, storage=%s, annotator=%s)",
		cfg.Port, cfg.AudioBackend, cfg.StorageDriver, cfg.Annotator)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Printf("ERROR api: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}
