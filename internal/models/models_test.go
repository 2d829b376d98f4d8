package models

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	vp := VoiceParams{ReferenceVoice: "main_sample.wav", ModelID: "v2", Speed: 1.3}

	a := Fingerprint("Hello there!", BackendSoVITS, vp)
	b := Fingerprint("Hello there!", BackendSoVITS, vp)
	if a != b {
		t.Errorf("same inputs produced different fingerprints: %s vs %s", a, b)
	}

	if len(a) != 32 {
		t.Errorf("expected 32-char hex fingerprint, got %q", a)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := VoiceParams{ReferenceVoice: "voice-a", ModelID: "sonic-2", Speed: 1.0}
	ref := Fingerprint("hello", BackendCartesia, base)

	variants := []string{
		Fingerprint("hello!", BackendCartesia, base),
		Fingerprint("hello", BackendOpenAI, base),
		Fingerprint("hello", BackendCartesia, VoiceParams{ReferenceVoice: "voice-b", ModelID: "sonic-2", Speed: 1.0}),
		Fingerprint("hello", BackendCartesia, VoiceParams{ReferenceVoice: "voice-a", ModelID: "sonic-3", Speed: 1.0}),
		Fingerprint("hello", BackendCartesia, VoiceParams{ReferenceVoice: "voice-a", ModelID: "sonic-2", Speed: 1.3}),
	}

	for i, v := range variants {
		if v == ref {
			t.Errorf("variant %d collided with base fingerprint", i)
		}
	}
}

func TestFingerprintTrimsText(t *testing.T) {
	vp := VoiceParams{ReferenceVoice: "v", ModelID: "m", Speed: 1.0}
	if Fingerprint("  hi  ", BackendOpenAI, vp) != Fingerprint("hi", BackendOpenAI, vp) {
		t.Error("surrounding whitespace should not change the fingerprint")
	}
}

func TestFallbackOrder(t *testing.T) {
	order := FallbackOrder()
	if len(order) != 5 {
		t.Fatalf("expected 5 backends, got %d", len(order))
	}
	if order[0] != BackendSoVITS {
		t.Errorf("self-hosted clone must be first in the cascade, got %s", order[0])
	}
	if order[len(order)-1] != BackendOpenAI {
		t.Errorf("openai must be the last resort, got %s", order[len(order)-1])
	}

	seen := map[Backend]bool{}
	for _, b := range order {
		if seen[b] {
			t.Errorf("duplicate backend in fallback order: %s", b)
		}
		seen[b] = true
	}
}

func TestValidBackend(t *testing.T) {
	for _, b := range FallbackOrder() {
		if !ValidBackend(b) {
			t.Errorf("%s should be valid", b)
		}
	}
	if ValidBackend(BackendCache) {
		t.Error("cache is not a synthesis target")
	}
	if ValidBackend("elevenlabs") {
		t.Error("unknown backend should be invalid")
	}
}

func TestFilenames(t *testing.T) {
	if got := AudioFilename("abc123", "wav"); got != "abc123.wav" {
		t.Errorf("unexpected audio filename %q", got)
	}
	if got := TimelineFilename("abc123"); got != "abc123.lipsync.json" {
		t.Errorf("unexpected timeline filename %q", got)
	}
}
