package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database (optional — synthesis event log)
	DatabaseURL string

	// Redis (optional — precache queue + analytics counters)
	RedisURL string

	// Storage
	AudioCacheDir string
	TempDir       string

	// GPT-SoVITS (self-hosted voice clone, first choice; "mock" fabricates audio)
	SoVITSURL         string
	SoVITSRefAudio    string
	SoVITSPromptText  string
	SoVITSSpeedFactor float64

	// Fish Audio (hosted voice clone)
	FishAudioAPIKey string
	FishModelID     string

	// Cartesia
	CartesiaKey     string
	CartesiaVoiceID string

	// Gemini TTS
	GeminiKey string

	// OpenAI TTS (baseline, last resort)
	OpenAIKey string

	// Lip sync
	RhubarbPath    string // path to the rhubarb binary (empty = alignment disabled)
	RhubarbEnabled bool
	CMUDictPath    string // pronouncing dictionary (empty = character mode)

	// Worker
	MaxConcurrentJobs int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		AudioCacheDir:      getEnv("AUDIO_CACHE_DIR", "audio_cache"),
		TempDir:            getEnv("TEMP_DIR", "tmp"),
		SoVITSURL:          getEnv("SOVITS_URL", ""),
		SoVITSRefAudio:     getEnv("SOVITS_REF_AUDIO", ""),
		SoVITSPromptText:   getEnv("SOVITS_PROMPT_TEXT", ""),
		SoVITSSpeedFactor:  getEnvFloat("SOVITS_SPEED_FACTOR", 1.0),
		FishAudioAPIKey:    getEnv("FISH_AUDIO_API_KEY", ""),
		FishModelID:        getEnv("FISH_MODEL_ID", ""),
		CartesiaKey:        getEnv("CARTESIA_API_KEY", ""),
		CartesiaVoiceID:    getEnv("CARTESIA_VOICE_ID", ""),
		GeminiKey:          getEnv("GEMINI_API_KEY", ""),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		RhubarbPath:        getEnv("RHUBARB_PATH", "rhubarb"),
		RhubarbEnabled:     getEnvBool("RHUBARB_ENABLED", true),
		CMUDictPath:        getEnv("CMUDICT_PATH", ""),
		MaxConcurrentJobs:  getEnvInt("MAX_CONCURRENT_JOBS", 2),
	}

	// At least one synthesis backend must be configured
	if cfg.SoVITSURL == "" && cfg.FishAudioAPIKey == "" && cfg.CartesiaKey == "" &&
		cfg.GeminiKey == "" && cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("no TTS backend configured: set at least one of SOVITS_URL, FISH_AUDIO_API_KEY, CARTESIA_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
