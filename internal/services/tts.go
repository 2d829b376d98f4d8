package services

import (
	"context"

	"github.com/vevocube/mona-voice/internal/models"
)

// ---------------------------------------------------------------------------
// Synthesizer is the common interface every TTS backend implements. The
// orchestrator walks the fallback cascade calling each one in turn; adapters
// that are not configured report Available() == false and are skipped
// without an attempt.
// ---------------------------------------------------------------------------

type Synthesizer interface {
	// Name identifies the backend in logs, cache fingerprints and analytics.
	Name() models.Backend

	// Available reports whether the adapter is configured well enough to
	// try. It must be cheap; no network calls.
	Available() bool

	// Synthesize renders the text to audio. The returned artifact carries
	// the encoded bytes plus format metadata; duration may be zero when the
	// adapter cannot determine it.
	Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error)

	// VoiceParams returns the parameters that shape this adapter's voice.
	// They are folded into the cache fingerprint so changing the reference
	// voice or speed invalidates stale entries.
	VoiceParams() models.VoiceParams

	// Close releases any held resources. Safe to call once at shutdown.
	Close() error
}
