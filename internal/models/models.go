package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Enums
type Backend string

const (
	BackendSoVITS     Backend = "sovits"     // Self-hosted GPT-SoVITS voice clone server
	BackendFishSpeech Backend = "fishspeech" // Fish Audio cloud API
	BackendCartesia   Backend = "cartesia"   // Cartesia Sonic cloud API
	BackendGemini     Backend = "gemini"     // Gemini TTS (AUDIO response modality)
	BackendOpenAI     Backend = "openai"     // OpenAI TTS — baseline, last resort

	// BackendCache is reported as the serving backend on a cache hit.
	// It is never a valid synthesis target.
	BackendCache Backend = "cache"
)

// FallbackOrder is the fixed priority order the orchestrator walks when the
// preferred backend fails: self-hosted clone first, baseline cloud last.
// The order is static — it does not adapt to historical success rates.
func FallbackOrder() []Backend {
	return []Backend{
		BackendSoVITS,
		BackendFishSpeech,
		BackendCartesia,
		BackendGemini,
		BackendOpenAI,
	}
}

// ValidBackend reports whether b names a real synthesis backend.
func ValidBackend(b Backend) bool {
	for _, fb := range FallbackOrder() {
		if b == fb {
			return true
		}
	}
	return false
}

// VoiceParams is the per-backend voice configuration that participates in the
// cache fingerprint. Changing any field must produce a different fingerprint,
// otherwise a voice swap would replay stale audio.
type VoiceParams struct {
	ReferenceVoice string  // voice ID, or reference audio path for voice cloning
	ModelID        string  // provider model identifier
	Speed          float64 // speech speed multiplier (0 means provider default)
}

// Fingerprint derives the deterministic cache key for (text, backend, voice).
// Text is whitespace-trimmed before hashing so incidental padding doesn't
// fragment the cache. The format mirrors the historical key layout, so caches
// written by earlier deployments stay valid across restarts.
func Fingerprint(text string, backend Backend, vp VoiceParams) string {
	key := fmt.Sprintf("%s_%s_%s_%s_%.2f",
		strings.TrimSpace(text), backend, vp.ReferenceVoice, vp.ModelID, vp.Speed)
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// SpeechRequest is the immutable input to the orchestrator.
type SpeechRequest struct {
	Text           string  `json:"text"`
	Backend        Backend `json:"backend"`
	WantTimeline   bool    `json:"wantTimeline"`
	AlignWithAudio bool    `json:"alignWithAudio"` // spend the forced-alignment latency budget
}

// AudioArtifact is the raw output of a synthesis backend. Created once per
// cache miss and never mutated afterwards; the cache owns its lifetime once
// stored.
type AudioArtifact struct {
	Data            []byte
	Format          string // "wav" or "mp3"
	SampleRate      int    // 0 when the provider doesn't report it
	DurationSeconds float64
}

// VisemeCue is one mouth-shape segment of a timeline. Weights map VRM blend
// target names (aa, ee, ih, oh, ou) to values in [0, 1].
type VisemeCue struct {
	Start   float64            `json:"start"`
	End     float64            `json:"end"`
	Shape   string             `json:"shape"`
	Weights map[string]float64 `json:"phonemes"`
}

// CacheEntry maps a fingerprint to a previously synthesized result.
type CacheEntry struct {
	Fingerprint string
	AudioPath   string // absolute path inside the cache directory
	Format      string
	Timeline    []VisemeCue // nil when no timeline was generated
	CreatedAt   time.Time
}

// AudioFilename returns the content-addressed filename for a cached artifact.
func AudioFilename(fingerprint, format string) string {
	return fingerprint + "." + format
}

// TimelineFilename returns the sidecar filename for cached lip sync data.
func TimelineFilename(fingerprint string) string {
	return fingerprint + ".lipsync.json"
}

// SynthesisEvent is the per-request observability record. Persisted best
// effort — a failed insert never fails the request.
type SynthesisEvent struct {
	Fingerprint    string    `json:"fingerprint"`
	Requested      Backend   `json:"requestedBackend"`
	Used           string    `json:"usedBackend"` // backend that served, "cache", or "" on total failure
	CacheHit       bool      `json:"cacheHit"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	TextLength     int       `json:"textLength"`
	CreatedAt      time.Time `json:"createdAt"`
}
