package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vevocube/mona-voice/internal/models"
)

// ---------------------------------------------------------------------------
// Content-addressed audio cache. Every synthesized clip is stored under its
// fingerprint — audio file plus an optional .lipsync.json timeline sidecar —
// so identical requests never hit a TTS backend twice. An in-memory index
// fronts the directory; the directory itself survives restarts and is
// re-discovered lazily on lookup.
// ---------------------------------------------------------------------------

type Cache struct {
	dir string

	mu      sync.RWMutex
	entries map[string]*models.CacheEntry
}

// New opens (creating if needed) a cache rooted at dir.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{
		dir:     dir,
		entries: make(map[string]*models.CacheEntry),
	}, nil
}

// Dir returns the cache root, for serving audio files over HTTP.
func (c *Cache) Dir() string {
	return c.dir
}

// Get looks up a fingerprint, checking the in-memory index first and the
// directory second. A present-but-empty audio file counts as a miss and is
// removed; a synthesis interrupted mid-write must not poison the cache.
func (c *Cache) Get(fingerprint, format string) (*models.CacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if ok {
		return entry, true
	}

	audioPath := filepath.Join(c.dir, models.AudioFilename(fingerprint, format))
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, false
	}
	if info.Size() == 0 {
		log.Printf("[Cache] Removing empty cache file %s", filepath.Base(audioPath))
		os.Remove(audioPath)
		os.Remove(filepath.Join(c.dir, models.TimelineFilename(fingerprint)))
		return nil, false
	}

	entry = &models.CacheEntry{
		Fingerprint: fingerprint,
		AudioPath:   audioPath,
		Format:      format,
		Timeline:    c.loadTimeline(fingerprint),
		CreatedAt:   info.ModTime(),
	}

	c.mu.Lock()
	c.entries[fingerprint] = entry
	c.mu.Unlock()

	return entry, true
}

// Timeline returns the timeline currently stored for a fingerprint, or nil.
// Entries are shared between concurrent requests, so timeline reads go
// through here rather than through the entry field directly; PutTimeline
// updates that field under the same lock.
func (c *Cache) Timeline(fingerprint string) []models.VisemeCue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.entries[fingerprint]; ok {
		return entry.Timeline
	}
	return nil
}

// loadTimeline reads the .lipsync.json sidecar if present. A corrupt sidecar
// is dropped; the audio remains usable without a timeline.
func (c *Cache) loadTimeline(fingerprint string) []models.VisemeCue {
	path := filepath.Join(c.dir, models.TimelineFilename(fingerprint))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cues []models.VisemeCue
	if err := json.Unmarshal(data, &cues); err != nil {
		log.Printf("[Cache] Removing corrupt timeline sidecar %s: %v", filepath.Base(path), err)
		os.Remove(path)
		return nil
	}
	return cues
}

// Put stores audio bytes and an optional timeline under the fingerprint and
// returns the resulting entry.
func (c *Cache) Put(fingerprint, format string, audio []byte, timeline []models.VisemeCue) (*models.CacheEntry, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("refusing to cache empty audio for %s", fingerprint)
	}

	audioPath := filepath.Join(c.dir, models.AudioFilename(fingerprint, format))
	if err := os.WriteFile(audioPath, audio, 0644); err != nil {
		return nil, fmt.Errorf("failed to write cached audio: %w", err)
	}

	if timeline != nil {
		data, err := json.Marshal(timeline)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal timeline: %w", err)
		}
		sidecarPath := filepath.Join(c.dir, models.TimelineFilename(fingerprint))
		if err := os.WriteFile(sidecarPath, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write timeline sidecar: %w", err)
		}
	}

	entry := &models.CacheEntry{
		Fingerprint: fingerprint,
		AudioPath:   audioPath,
		Format:      format,
		Timeline:    timeline,
		CreatedAt:   time.Now(),
	}

	c.mu.Lock()
	c.entries[fingerprint] = entry
	c.mu.Unlock()

	return entry, nil
}

// PutTimeline attaches a timeline sidecar to an already-cached clip. Used
// when the timeline is computed after the audio has been written.
func (c *Cache) PutTimeline(fingerprint string, timeline []models.VisemeCue) error {
	if len(timeline) == 0 {
		return nil
	}

	data, err := json.Marshal(timeline)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}
	sidecarPath := filepath.Join(c.dir, models.TimelineFilename(fingerprint))
	if err := os.WriteFile(sidecarPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write timeline sidecar: %w", err)
	}

	c.mu.Lock()
	if entry, ok := c.entries[fingerprint]; ok {
		entry.Timeline = timeline
	}
	c.mu.Unlock()

	return nil
}

// Clear removes every cached file and resets the index, returning the number
// of audio clips removed.
func (c *Cache) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache dir: %w", err)
	}

	removed := 0
	for _, entry := range names {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("[Cache] Failed to remove %s: %v", entry.Name(), err)
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".lipsync.json") {
			removed++
		}
	}

	c.entries = make(map[string]*models.CacheEntry)
	log.Printf("[Cache] Cleared %d clips", removed)
	return removed, nil
}

// Stats reports the number of cached clips and their total size in bytes by
// walking the directory, not the in-memory index, so pre-restart entries are
// counted too.
func (c *Cache) Stats() (count int, totalBytes int64, err error) {
	names, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list cache dir: %w", err)
	}

	for _, entry := range names {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		totalBytes += info.Size()
		if !strings.HasSuffix(entry.Name(), ".lipsync.json") {
			count++
		}
	}
	return count, totalBytes, nil
}
