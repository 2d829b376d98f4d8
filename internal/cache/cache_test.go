package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vevocube/mona-voice/internal/models"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestPutGetRoundTrip(t *testing.T) {
	c := newTestCache(t)

	timeline := []models.VisemeCue{
		{Start: 0, End: 0.5, Shape: "D", Weights: map[string]float64{"aa": 0.9}},
		{Start: 0.5, End: 1.0, Shape: "X", Weights: map[string]float64{"aa": 0}},
	}

	if _, err := c.Put("fp1", "wav", []byte("RIFF fake audio"), timeline); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, ok := c.Get("fp1", "wav")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if entry.Format != "wav" {
		t.Errorf("unexpected format %q", entry.Format)
	}
	stored, err := os.ReadFile(entry.AudioPath)
	if err != nil {
		t.Fatalf("reading cached audio: %v", err)
	}
	if string(stored) != "RIFF fake audio" {
		t.Errorf("cached audio should be byte-identical, got %q", stored)
	}
	if len(entry.Timeline) != 2 || entry.Timeline[0].Shape != "D" {
		t.Errorf("unexpected timeline %+v", entry.Timeline)
	}
}

func TestGetSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	first, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := first.Put("fp2", "mp3", []byte("mp3 bytes"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A fresh cache over the same directory must rediscover the entry.
	second, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	entry, ok := second.Get("fp2", "mp3")
	if !ok {
		t.Fatal("entry should be discoverable from disk")
	}
	if entry.Timeline != nil {
		t.Errorf("no sidecar was written, timeline should be nil, got %v", entry.Timeline)
	}
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t)
	if _, ok := c.Get("unknown", "wav"); ok {
		t.Error("expected miss for unknown fingerprint")
	}
}

func TestEmptyAudioFileIsAMiss(t *testing.T) {
	c := newTestCache(t)

	path := filepath.Join(c.Dir(), models.AudioFilename("fp3", "wav"))
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("fp3", "wav"); ok {
		t.Error("zero-byte audio should count as a miss")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("zero-byte audio file should be removed")
	}
}

func TestCorruptSidecarDropped(t *testing.T) {
	c := newTestCache(t)

	audioPath := filepath.Join(c.Dir(), models.AudioFilename("fp4", "wav"))
	if err := os.WriteFile(audioPath, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	sidecarPath := filepath.Join(c.Dir(), models.TimelineFilename("fp4"))
	if err := os.WriteFile(sidecarPath, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	entry, ok := c.Get("fp4", "wav")
	if !ok {
		t.Fatal("audio should still hit despite corrupt sidecar")
	}
	if entry.Timeline != nil {
		t.Errorf("corrupt sidecar should yield nil timeline, got %v", entry.Timeline)
	}
	if _, err := os.Stat(sidecarPath); !os.IsNotExist(err) {
		t.Error("corrupt sidecar should be removed")
	}
}

func TestPutTimelineAfterAudio(t *testing.T) {
	c := newTestCache(t)

	if _, err := c.Put("fp6", "wav", []byte("audio"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if c.Timeline("fp6") != nil {
		t.Error("no timeline attached yet")
	}

	cues := []models.VisemeCue{{Start: 0, End: 0.4, Shape: "B"}}
	if err := c.PutTimeline("fp6", cues); err != nil {
		t.Fatalf("PutTimeline: %v", err)
	}

	got := c.Timeline("fp6")
	if len(got) != 1 || got[0].Shape != "B" {
		t.Errorf("unexpected timeline %+v", got)
	}

	// The sidecar must also land on disk for restart rediscovery.
	if _, err := os.Stat(filepath.Join(c.Dir(), models.TimelineFilename("fp6"))); err != nil {
		t.Errorf("sidecar should be written: %v", err)
	}
}

func TestTimelineUnknownFingerprint(t *testing.T) {
	c := newTestCache(t)
	if c.Timeline("missing") != nil {
		t.Error("unknown fingerprint should have no timeline")
	}
}

func TestPutRejectsEmptyAudio(t *testing.T) {
	c := newTestCache(t)
	if _, err := c.Put("fp5", "wav", nil, nil); err == nil {
		t.Error("empty audio should be rejected")
	}
}

func TestClearAndStats(t *testing.T) {
	c := newTestCache(t)

	timeline := []models.VisemeCue{{Start: 0, End: 1, Shape: "X"}}
	if _, err := c.Put("a", "wav", []byte("aaaa"), timeline); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Put("b", "mp3", []byte("bb"), nil); err != nil {
		t.Fatal(err)
	}

	count, bytes, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 clips, got %d", count)
	}
	if bytes <= 0 {
		t.Errorf("expected positive total size, got %d", bytes)
	}

	removed, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 clips removed, got %d", removed)
	}

	if _, ok := c.Get("a", "wav"); ok {
		t.Error("entries must not survive Clear")
	}
	count, _, _ = c.Stats()
	if count != 0 {
		t.Errorf("expected empty cache after clear, got %d clips", count)
	}
}
