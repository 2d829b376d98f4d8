package speech

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vevocube/mona-voice/internal/analytics"
	"github.com/vevocube/mona-voice/internal/cache"
	"github.com/vevocube/mona-voice/internal/db"
	"github.com/vevocube/mona-voice/internal/ffmpeg"
	"github.com/vevocube/mona-voice/internal/lipsync"
	"github.com/vevocube/mona-voice/internal/models"
	"github.com/vevocube/mona-voice/internal/services"
	"github.com/vevocube/mona-voice/internal/viseme"
	"github.com/vevocube/mona-voice/internal/wave"
)

// ---------------------------------------------------------------------------
// Orchestrator — walks the backend cascade for each request: cache first,
// then the preferred backend, then the rest of the fallback order. A request
// only comes back empty when every configured backend has failed; synthesis
// problems degrade the response, they never error it.
// ---------------------------------------------------------------------------

type Orchestrator struct {
	synths    []services.Synthesizer
	cache     *cache.Cache
	estimator *viseme.Estimator
	aligner   *lipsync.Aligner
	ffmpeg    *ffmpeg.FFmpegService
	store     *db.DB
	stats     *analytics.Analytics

	// Concurrent identical requests collapse into one synthesis.
	group singleflight.Group
}

func NewOrchestrator(
	synths []services.Synthesizer,
	audioCache *cache.Cache,
	estimator *viseme.Estimator,
	aligner *lipsync.Aligner,
	ff *ffmpeg.FFmpegService,
	store *db.DB,
	stats *analytics.Analytics,
) *Orchestrator {
	return &Orchestrator{
		synths:    synths,
		cache:     audioCache,
		estimator: estimator,
		aligner:   aligner,
		ffmpeg:    ff,
		store:     store,
		stats:     stats,
	}
}

// Result is what a synthesis request produces. AudioFile is empty when the
// whole cascade failed; callers render that as an empty (not error) response.
type Result struct {
	AudioFile      string // filename inside the cache directory
	Format         string
	Timeline       []models.VisemeCue
	BackendUsed    models.Backend // "cache" on a hit, "" on total failure
	CacheHit       bool
	ElapsedSeconds float64
}

// Synthesize runs the cascade for one request. It never returns an error:
// per-backend failures are logged and the next backend is tried, and a fully
// failed cascade yields an empty Result.
func (o *Orchestrator) Synthesize(ctx context.Context, req models.SpeechRequest) *Result {
	start := time.Now()

	text := CleanForTTS(req.Text)
	if text == "" {
		log.Printf("[Speech] Request text empty after cleaning, nothing to synthesize")
		return &Result{ElapsedSeconds: time.Since(start).Seconds()}
	}

	for _, backend := range o.cascadeOrder(req.Backend) {
		synth := o.synthByName(backend)
		if synth == nil || !synth.Available() {
			continue
		}

		fp := models.Fingerprint(text, backend, synth.VoiceParams())

		if entry, ok := o.lookupCache(fp); ok {
			o.stats.RecordCacheHit(ctx, backend)
			timeline := o.ensureTimeline(ctx, entry, text, req)

			elapsed := time.Since(start).Seconds()
			o.recordEvent(fp, req.Backend, string(models.BackendCache), true, elapsed, len(text))
			log.Printf("[Speech] Cache hit for %s (%s)", fp, backend)

			return &Result{
				AudioFile:      filepath.Base(entry.AudioPath),
				Format:         entry.Format,
				Timeline:       timeline,
				BackendUsed:    models.BackendCache,
				CacheHit:       true,
				ElapsedSeconds: elapsed,
			}
		}

		o.stats.RecordRequest(ctx, backend)
		attemptStart := time.Now()

		entry, err := o.synthesizeAndCache(ctx, synth, fp, text, req)
		if err != nil {
			o.stats.RecordFailure(ctx, backend)
			log.Printf("[Speech] Backend %s failed, trying next: %v", backend, err)
			continue
		}
		o.stats.RecordLatency(ctx, backend, time.Since(attemptStart).Seconds())

		// The synthesis may have been done by a concurrent request with a
		// different wantTimeline flag, so resolve the timeline per caller.
		timeline := o.ensureTimeline(ctx, entry, text, req)

		elapsed := time.Since(start).Seconds()
		o.recordEvent(fp, req.Backend, string(backend), false, elapsed, len(text))
		log.Printf("[Speech] Synthesized via %s in %.2fs", backend, elapsed)

		return &Result{
			AudioFile:      filepath.Base(entry.AudioPath),
			Format:         entry.Format,
			Timeline:       timeline,
			BackendUsed:    backend,
			ElapsedSeconds: elapsed,
		}
	}

	elapsed := time.Since(start).Seconds()
	o.recordEvent("", req.Backend, "", false, elapsed, len(text))
	log.Printf("[Speech] All backends failed for %d chars of text", len(text))
	return &Result{ElapsedSeconds: elapsed}
}

// cascadeOrder puts the requested backend first, then the remaining fallback
// order. An unknown or empty preference degrades to the default order.
func (o *Orchestrator) cascadeOrder(preferred models.Backend) []models.Backend {
	order := models.FallbackOrder()
	if !models.ValidBackend(preferred) {
		return order
	}

	out := make([]models.Backend, 0, len(order))
	out = append(out, preferred)
	for _, b := range order {
		if b != preferred {
			out = append(out, b)
		}
	}
	return out
}

func (o *Orchestrator) synthByName(backend models.Backend) services.Synthesizer {
	for _, s := range o.synths {
		if s.Name() == backend {
			return s
		}
	}
	return nil
}

// lookupCache probes both container formats; the fingerprint does not encode
// the format, the backend that wrote the entry chose it.
func (o *Orchestrator) lookupCache(fp string) (*models.CacheEntry, bool) {
	for _, format := range []string{"wav", "mp3"} {
		if entry, ok := o.cache.Get(fp, format); ok {
			return entry, true
		}
	}
	return nil, false
}

// synthesizeAndCache performs the actual backend call plus caching under a
// singleflight key, so two concurrent requests for the same fingerprint cost
// one synthesis. The flight only covers audio: whether a caller gets a
// timeline is decided per caller in ensureTimeline, never by whichever
// request happened to win the flight.
func (o *Orchestrator) synthesizeAndCache(ctx context.Context, synth services.Synthesizer, fp, text string, req models.SpeechRequest) (*models.CacheEntry, error) {
	v, err, _ := o.group.Do(fp, func() (interface{}, error) {
		if entry, ok := o.lookupCache(fp); ok {
			return entry, nil
		}

		artifact, err := synth.Synthesize(ctx, text)
		if err != nil {
			return nil, err
		}
		if artifact == nil || len(artifact.Data) == 0 {
			return nil, fmt.Errorf("backend %s returned no audio", synth.Name())
		}

		entry, err := o.cache.Put(fp, artifact.Format, artifact.Data, nil)
		if err != nil {
			return nil, err
		}

		if req.WantTimeline {
			duration := o.resolveDuration(ctx, entry, artifact, text)
			timeline := o.buildTimeline(ctx, entry, text, duration, req.AlignWithAudio)
			if timeline != nil {
				if err := o.cache.PutTimeline(fp, timeline); err != nil {
					log.Printf("[Speech] Failed to cache timeline for %s: %v", fp, err)
				}
			}
		}

		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CacheEntry), nil
}

// resolveDuration finds the clip length in seconds. WAV artifacts answer from
// their header; a malformed header means the duration is unknown and stays 0,
// which downstream reads as "skip the timeline". Compressed formats go
// through ffprobe, with a speech-rate estimate as the last resort.
func (o *Orchestrator) resolveDuration(ctx context.Context, entry *models.CacheEntry, artifact *models.AudioArtifact, text string) float64 {
	if artifact.DurationSeconds > 0 {
		return artifact.DurationSeconds
	}
	if artifact.Format == "wav" {
		return 0
	}

	if o.ffmpeg != nil {
		if d, err := o.ffmpeg.GetAudioDuration(ctx, entry.AudioPath); err == nil && d > 0 {
			return d
		}
		log.Printf("[Speech] ffprobe could not measure %s, estimating from text length", filepath.Base(entry.AudioPath))
	}

	// ~14 characters per second of speech, never below half a second.
	estimate := float64(len(text))/14.0 + 0.3
	if estimate < 0.5 {
		estimate = 0.5
	}
	return estimate
}

// buildTimeline prefers forced alignment when the caller asked for it, and
// falls back to text estimation. A zero duration yields no timeline at all.
func (o *Orchestrator) buildTimeline(ctx context.Context, entry *models.CacheEntry, text string, duration float64, align bool) []models.VisemeCue {
	if align && o.aligner != nil && o.aligner.Available() {
		cues, err := o.aligner.Align(ctx, entry.AudioPath, text)
		if err == nil {
			return cues
		}
		log.Printf("[Speech] Alignment failed, falling back to estimation: %v", err)
	}

	if duration <= 0 {
		return nil
	}
	return o.estimator.Timeline(text, duration)
}

// ensureTimeline resolves the timeline for an already-cached clip,
// backfilling a missing one when this caller asked for lip sync (the audio
// may have been cached by a request that didn't). The stored timeline is
// read and written through the cache so concurrent requests sharing the
// entry never touch it unsynchronized.
func (o *Orchestrator) ensureTimeline(ctx context.Context, entry *models.CacheEntry, text string, req models.SpeechRequest) []models.VisemeCue {
	if !req.WantTimeline {
		return nil
	}
	if cues := o.cache.Timeline(entry.Fingerprint); cues != nil {
		return cues
	}

	var duration float64
	if entry.Format == "wav" {
		duration = wave.Duration(entry.AudioPath)
	} else if o.ffmpeg != nil {
		if d, err := o.ffmpeg.GetAudioDuration(ctx, entry.AudioPath); err == nil {
			duration = d
		}
	}

	timeline := o.buildTimeline(ctx, entry, text, duration, req.AlignWithAudio)
	if timeline != nil {
		if err := o.cache.PutTimeline(entry.Fingerprint, timeline); err != nil {
			log.Printf("[Speech] Failed to cache backfilled timeline for %s: %v", entry.Fingerprint, err)
		}
	}
	return timeline
}

// recordEvent persists the observability record best effort, detached from
// the request context so client disconnects don't lose events.
func (o *Orchestrator) recordEvent(fp string, requested models.Backend, used string, cacheHit bool, elapsed float64, textLen int) {
	if o.store == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		event := &models.SynthesisEvent{
			Fingerprint:    fp,
			Requested:      requested,
			Used:           used,
			CacheHit:       cacheHit,
			ElapsedSeconds: elapsed,
			TextLength:     textLen,
		}
		if err := o.store.InsertSynthesisEvent(ctx, event); err != nil {
			log.Printf("[Speech] Failed to record synthesis event: %v", err)
		}
	}()
}

// Backends reports each cascade backend and whether it is configured.
func (o *Orchestrator) Backends() []BackendStatus {
	out := make([]BackendStatus, 0, len(models.FallbackOrder()))
	for _, b := range models.FallbackOrder() {
		status := BackendStatus{Name: b}
		if s := o.synthByName(b); s != nil {
			status.Available = s.Available()
		}
		out = append(out, status)
	}
	return out
}

type BackendStatus struct {
	Name      models.Backend `json:"name"`
	Available bool           `json:"available"`
}

// Warmup gives backends that need model loading a head start. Only adapters
// implementing the optional warmer interface participate.
func (o *Orchestrator) Warmup(ctx context.Context) {
	type warmer interface {
		Warmup(context.Context)
	}
	for _, s := range o.synths {
		if w, ok := s.(warmer); ok {
			w.Warmup(ctx)
		}
	}
}

// Close shuts every adapter down.
func (o *Orchestrator) Close() {
	for _, s := range o.synths {
		if err := s.Close(); err != nil {
			log.Printf("[Speech] Failed to close %s: %v", s.Name(), err)
		}
	}
}
