package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/vevocube/mona-voice/internal/models"
)

// QueuePrecache holds pending voice line pre-synthesis jobs.
const QueuePrecache = "queue:precache_voice"

type Queue struct {
	client *redis.Client
}

// Job is one precache request: synthesize a line ahead of time so the first
// real playback is a cache hit.
type Job struct {
	ID        uuid.UUID      `json:"id"`
	Text      string         `json:"text"`
	Backend   models.Backend `json:"backend,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

// Client exposes the underlying Redis connection for analytics counters.
func (q *Queue) Client() *redis.Client {
	return q.client
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.CreatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.RPush(ctx, QueuePrecache, data).Err()
}

func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, QueuePrecache).Result()
	if err == redis.Nil {
		return nil, nil // No job available
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, QueuePrecache).Result()
}

// EnqueuePrecache queues one line for background synthesis.
func (q *Queue) EnqueuePrecache(ctx context.Context, text string, backend models.Backend) (uuid.UUID, error) {
	job := &Job{
		ID:      uuid.New(),
		Text:    text,
		Backend: backend,
	}
	if err := q.Enqueue(ctx, job); err != nil {
		return uuid.Nil, err
	}
	return job.ID, nil
}
