package analytics

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/vevocube/mona-voice/internal/models"
)

// ---------------------------------------------------------------------------
// Per-backend request counters in Redis. Everything here is best effort: a
// nil client or a Redis hiccup is logged and swallowed, never surfaced to the
// request path.
// ---------------------------------------------------------------------------

const statsKeyPrefix = "voice:stats:"

type Analytics struct {
	client *redis.Client
}

// New wraps a Redis client; client may be nil, in which case every method is
// a no-op.
func New(client *redis.Client) *Analytics {
	return &Analytics{client: client}
}

func (a *Analytics) key(backend models.Backend) string {
	return statsKeyPrefix + string(backend)
}

// RecordRequest counts an attempt against a backend.
func (a *Analytics) RecordRequest(ctx context.Context, backend models.Backend) {
	a.incr(ctx, backend, "requests", 1)
}

// RecordFailure counts a failed attempt.
func (a *Analytics) RecordFailure(ctx context.Context, backend models.Backend) {
	a.incr(ctx, backend, "failures", 1)
}

// RecordCacheHit counts a request served from the cache, attributed to the
// backend whose fingerprint matched.
func (a *Analytics) RecordCacheHit(ctx context.Context, backend models.Backend) {
	a.incr(ctx, backend, "cache_hits", 1)
}

// RecordLatency accumulates synthesis wall time in milliseconds so averages
// can be derived from (latency_ms_total / requests).
func (a *Analytics) RecordLatency(ctx context.Context, backend models.Backend, seconds float64) {
	a.incr(ctx, backend, "latency_ms_total", int64(seconds*1000))
}

func (a *Analytics) incr(ctx context.Context, backend models.Backend, field string, delta int64) {
	if a.client == nil {
		return
	}
	if err := a.client.HIncrBy(ctx, a.key(backend), field, delta).Err(); err != nil {
		log.Printf("[Analytics] Failed to increment %s/%s: %v", backend, field, err)
	}
}

// BackendStats is the counter snapshot for one backend.
type BackendStats struct {
	Requests       int64 `json:"requests"`
	Failures       int64 `json:"failures"`
	CacheHits      int64 `json:"cacheHits"`
	LatencyMSTotal int64 `json:"latencyMsTotal"`
}

// Snapshot reads the counters for every backend plus the cache pseudo-backend.
func (a *Analytics) Snapshot(ctx context.Context) (map[models.Backend]BackendStats, error) {
	if a.client == nil {
		return nil, fmt.Errorf("analytics not configured")
	}

	backends := append(models.FallbackOrder(), models.BackendCache)
	out := make(map[models.Backend]BackendStats, len(backends))

	for _, b := range backends {
		fields, err := a.client.HGetAll(ctx, a.key(b)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read stats for %s: %w", b, err)
		}
		if len(fields) == 0 {
			continue
		}
		out[b] = BackendStats{
			Requests:       parseCounter(fields["requests"]),
			Failures:       parseCounter(fields["failures"]),
			CacheHits:      parseCounter(fields["cache_hits"]),
			LatencyMSTotal: parseCounter(fields["latency_ms_total"]),
		}
	}
	return out, nil
}

func parseCounter(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
