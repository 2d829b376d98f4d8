package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vevocube/mona-voice/internal/analytics"
	"github.com/vevocube/mona-voice/internal/cache"
	"github.com/vevocube/mona-voice/internal/models"
	"github.com/vevocube/mona-voice/internal/services"
	"github.com/vevocube/mona-voice/internal/viseme"
	"github.com/vevocube/mona-voice/internal/wave"
)

type stubSynth struct {
	name      models.Backend
	available bool
	artifact  *models.AudioArtifact
	err       error
	delay     time.Duration
	calls     int
}

var _ services.Synthesizer = (*stubSynth)(nil)

func (s *stubSynth) Name() models.Backend { return s.name }
func (s *stubSynth) Available() bool      { return s.available }
func (s *stubSynth) VoiceParams() models.VoiceParams {
	return models.VoiceParams{ReferenceVoice: string(s.name), ModelID: "stub", Speed: 1.0}
}
func (s *stubSynth) Close() error { return nil }

func (s *stubSynth) Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error) {
	s.calls++
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.artifact, nil
}

func wavArtifact(duration float64) *models.AudioArtifact {
	return &models.AudioArtifact{
		Data:            []byte("RIFF fake wav payload"),
		Format:          "wav",
		SampleRate:      16000,
		DurationSeconds: duration,
	}
}

func newTestOrchestrator(t *testing.T, synths ...services.Synthesizer) *Orchestrator {
	t.Helper()
	c, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	return NewOrchestrator(synths, c, viseme.NewEstimator(nil), nil, nil, nil, analytics.New(nil))
}

func TestCascadeFallsThroughFailures(t *testing.T) {
	sovits := &stubSynth{name: models.BackendSoVITS, available: true, err: errors.New("server down")}
	fish := &stubSynth{name: models.BackendFishSpeech, available: false}
	cartesia := &stubSynth{name: models.BackendCartesia, available: true, artifact: wavArtifact(1.0)}

	o := newTestOrchestrator(t, sovits, fish, cartesia)
	res := o.Synthesize(context.Background(), models.SpeechRequest{Text: "Hello world"})

	if res.BackendUsed != models.BackendCartesia {
		t.Errorf("expected cartesia to serve, got %q", res.BackendUsed)
	}
	if res.AudioFile == "" {
		t.Error("expected an audio file on success")
	}
	if sovits.calls != 1 {
		t.Errorf("failed backend should be attempted exactly once, got %d", sovits.calls)
	}
	if fish.calls != 0 {
		t.Errorf("unavailable backend must be skipped without an attempt, got %d calls", fish.calls)
	}
}

func TestTotalFailureReturnsEmptyResult(t *testing.T) {
	sovits := &stubSynth{name: models.BackendSoVITS, available: true, err: errors.New("down")}
	openai := &stubSynth{name: models.BackendOpenAI, available: true, err: errors.New("also down")}

	o := newTestOrchestrator(t, sovits, openai)
	res := o.Synthesize(context.Background(), models.SpeechRequest{Text: "Hello"})

	if res.AudioFile != "" || res.BackendUsed != "" || res.Timeline != nil {
		t.Errorf("total failure should yield an empty result, got %+v", res)
	}
	if res.ElapsedSeconds < 0 {
		t.Errorf("elapsed time should still be reported, got %v", res.ElapsedSeconds)
	}
}

func TestSecondRequestServedFromCache(t *testing.T) {
	sovits := &stubSynth{name: models.BackendSoVITS, available: true, artifact: wavArtifact(2.0)}
	o := newTestOrchestrator(t, sovits)

	req := models.SpeechRequest{Text: "Good morning!", WantTimeline: true}

	first := o.Synthesize(context.Background(), req)
	if first.BackendUsed != models.BackendSoVITS || first.CacheHit {
		t.Fatalf("first request should synthesize fresh, got %+v", first)
	}
	if first.Timeline == nil {
		t.Fatal("first request should carry a timeline")
	}

	second := o.Synthesize(context.Background(), req)
	if second.BackendUsed != models.BackendCache || !second.CacheHit {
		t.Errorf("second request should hit the cache, got %+v", second)
	}
	if sovits.calls != 1 {
		t.Errorf("backend should be called once across both requests, got %d", sovits.calls)
	}
	if len(second.Timeline) != len(first.Timeline) {
		t.Errorf("cached timeline should match: %d vs %d cues", len(second.Timeline), len(first.Timeline))
	}
}

func TestUnknownDurationSkipsTimeline(t *testing.T) {
	// A wav artifact whose header could not be probed reports duration 0;
	// the audio is still served but without a timeline.
	sovits := &stubSynth{name: models.BackendSoVITS, available: true, artifact: wavArtifact(0)}
	o := newTestOrchestrator(t, sovits)

	res := o.Synthesize(context.Background(), models.SpeechRequest{Text: "Hello", WantTimeline: true})

	if res.AudioFile == "" {
		t.Fatal("audio should still be served")
	}
	if res.Timeline != nil {
		t.Errorf("unknown duration must skip the timeline, got %v", res.Timeline)
	}
}

func TestPreferredBackendTriedFirst(t *testing.T) {
	sovits := &stubSynth{name: models.BackendSoVITS, available: true, artifact: wavArtifact(1.0)}
	openai := &stubSynth{name: models.BackendOpenAI, available: true, artifact: wavArtifact(1.0)}

	o := newTestOrchestrator(t, sovits, openai)
	res := o.Synthesize(context.Background(), models.SpeechRequest{Text: "Hi", Backend: models.BackendOpenAI})

	if res.BackendUsed != models.BackendOpenAI {
		t.Errorf("preferred backend should serve, got %q", res.BackendUsed)
	}
	if sovits.calls != 0 {
		t.Errorf("higher-priority backend should not be touched, got %d calls", sovits.calls)
	}
}

func TestEmptyTextAfterCleaning(t *testing.T) {
	sovits := &stubSynth{name: models.BackendSoVITS, available: true, artifact: wavArtifact(1.0)}
	o := newTestOrchestrator(t, sovits)

	// Pure action markers clean down to nothing.
	res := o.Synthesize(context.Background(), models.SpeechRequest{Text: "*waves hello* 🎉"})

	if res.AudioFile != "" {
		t.Errorf("nothing to say should produce no audio, got %+v", res)
	}
	if sovits.calls != 0 {
		t.Errorf("no backend should be attempted for empty text, got %d calls", sovits.calls)
	}
}

func TestTimelineNotBuiltWhenNotWanted(t *testing.T) {
	sovits := &stubSynth{name: models.BackendSoVITS, available: true, artifact: wavArtifact(2.0)}
	o := newTestOrchestrator(t, sovits)

	res := o.Synthesize(context.Background(), models.SpeechRequest{Text: "Hello there"})
	if res.Timeline != nil {
		t.Errorf("timeline should only be built on request, got %v", res.Timeline)
	}
}

func TestConcurrentRequestsKeepOwnTimelineFlags(t *testing.T) {
	// One second of 16-bit mono silence, wrapped as a real WAV so the joined
	// request can probe the duration from the cached file.
	data, err := wave.WrapPCM(make([]byte, 16000*2), 16000, 1)
	if err != nil {
		t.Fatalf("WrapPCM: %v", err)
	}
	sovits := &stubSynth{
		name:      models.BackendSoVITS,
		available: true,
		delay:     200 * time.Millisecond,
		artifact:  &models.AudioArtifact{Data: data, Format: "wav", SampleRate: 16000},
	}
	o := newTestOrchestrator(t, sovits)

	var wg sync.WaitGroup
	var plain, withTimeline *Result

	wg.Add(1)
	go func() {
		defer wg.Done()
		plain = o.Synthesize(context.Background(), models.SpeechRequest{Text: "Good evening"})
	}()

	// Let the first request claim the in-flight synthesis before the second
	// joins it with the opposite wantTimeline flag.
	time.Sleep(50 * time.Millisecond)
	wg.Add(1)
	go func() {
		defer wg.Done()
		withTimeline = o.Synthesize(context.Background(), models.SpeechRequest{Text: "Good evening", WantTimeline: true})
	}()
	wg.Wait()

	if sovits.calls != 1 {
		t.Errorf("identical concurrent requests should cost one synthesis, got %d", sovits.calls)
	}
	if plain.Timeline != nil {
		t.Errorf("request without wantTimeline should carry none, got %v", plain.Timeline)
	}
	if withTimeline.AudioFile == "" {
		t.Fatal("joined request should still receive audio")
	}
	if withTimeline.Timeline == nil {
		t.Error("wantTimeline request must get a timeline even when another request did the synthesis")
	}
}

func TestBackendsStatus(t *testing.T) {
	sovits := &stubSynth{name: models.BackendSoVITS, available: true}
	o := newTestOrchestrator(t, sovits)

	statuses := o.Backends()
	if len(statuses) != len(models.FallbackOrder()) {
		t.Fatalf("expected one status per backend, got %d", len(statuses))
	}
	if statuses[0].Name != models.BackendSoVITS || !statuses[0].Available {
		t.Errorf("sovits should report available, got %+v", statuses[0])
	}
	for _, s := range statuses[1:] {
		if s.Available {
			t.Errorf("unregistered backend %s should report unavailable", s.Name)
		}
	}
}

func TestCascadeOrder(t *testing.T) {
	o := newTestOrchestrator(t)

	order := o.cascadeOrder(models.BackendCartesia)
	if order[0] != models.BackendCartesia {
		t.Errorf("preferred backend should lead, got %v", order)
	}
	if len(order) != len(models.FallbackOrder()) {
		t.Errorf("cascade must still cover every backend, got %v", order)
	}

	order = o.cascadeOrder("bogus")
	if order[0] != models.BackendSoVITS {
		t.Errorf("unknown preference should degrade to the default order, got %v", order)
	}
}
