package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vevocube/mona-voice/internal/analytics"
	"github.com/vevocube/mona-voice/internal/api"
	"github.com/vevocube/mona-voice/internal/cache"
	"github.com/vevocube/mona-voice/internal/config"
	"github.com/vevocube/mona-voice/internal/db"
	"github.com/vevocube/mona-voice/internal/ffmpeg"
	"github.com/vevocube/mona-voice/internal/lipsync"
	"github.com/vevocube/mona-voice/internal/queue"
	"github.com/vevocube/mona-voice/internal/services"
	"github.com/vevocube/mona-voice/internal/speech"
	"github.com/vevocube/mona-voice/internal/viseme"
	"github.com/vevocube/mona-voice/internal/worker"
)

func main() {
	log.Println("Starting Mona Voice API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database (optional — event log only)
	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.Migrate(migrateCtx); err != nil {
			cancel()
			log.Fatalf("Failed to run migrations: %v", err)
		}
		cancel()
	} else {
		log.Println("No DATABASE_URL set — synthesis event log disabled")
	}

	// Connect to Redis (optional — precache queue + analytics counters)
	var q *queue.Queue
	if cfg.RedisURL != "" {
		q, err = queue.New(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer q.Close()
		log.Println("Connected to Redis")
	} else {
		log.Println("No REDIS_URL set — precache queue and analytics disabled")
	}

	var stats *analytics.Analytics
	if q != nil {
		stats = analytics.New(q.Client())
	} else {
		stats = analytics.New(nil)
	}

	// Open the audio cache
	audioCache, err := cache.New(cfg.AudioCacheDir)
	if err != nil {
		log.Fatalf("Failed to open audio cache: %v", err)
	}

	// Pronouncing dictionary — phoneme mode when present, character mode otherwise
	var dict *viseme.PhonemeDict
	if cfg.CMUDictPath != "" {
		dict, err = viseme.LoadCMUDict(cfg.CMUDictPath)
		if err != nil {
			log.Fatalf("Failed to load pronouncing dictionary: %v", err)
		}
		log.Printf("Loaded pronouncing dictionary (%d entries)", dict.Len())
	} else {
		log.Println("No CMUDICT_PATH set — viseme estimation runs in character mode")
	}
	estimator := viseme.NewEstimator(dict)

	ffmpegSvc := ffmpeg.NewFFmpegService(cfg.TempDir)

	// Forced aligner — optional, estimation covers for it
	var aligner *lipsync.Aligner
	if cfg.RhubarbEnabled {
		aligner = lipsync.NewAligner(cfg.RhubarbPath, ffmpegSvc)
		if aligner.Available() {
			log.Printf("Rhubarb forced alignment enabled (%s)", cfg.RhubarbPath)
		} else {
			log.Printf("Rhubarb binary not found at %q — falling back to text estimation", cfg.RhubarbPath)
		}
	}

	// Synthesis backends in cascade order
	synths := []services.Synthesizer{
		services.NewSoVITSService(cfg.SoVITSURL, cfg.SoVITSRefAudio, cfg.SoVITSPromptText, cfg.SoVITSSpeedFactor),
		services.NewFishSpeechService(cfg.FishAudioAPIKey, cfg.FishModelID),
		services.NewCartesiaService(cfg.CartesiaKey, cfg.CartesiaVoiceID),
		services.NewGeminiService(cfg.GeminiKey),
		services.NewOpenAIService(cfg.OpenAIKey),
	}

	orchestrator := speech.NewOrchestrator(synths, audioCache, estimator, aligner, ffmpegSvc, database, stats)
	defer orchestrator.Close()

	// Warm the voice clone server in the background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		orchestrator.Warmup(ctx)
	}()

	// Create API handler
	handler := api.NewHandler(orchestrator, audioCache, q, stats, database)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
		AudioDir:           audioCache.Dir(),
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start precache worker if enabled and the queue is up
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled && q != nil {
		log.Println("Precache worker enabled, starting background processing...")

		w := worker.New(q, orchestrator)

		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
