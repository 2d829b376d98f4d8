package worker

import (
	"context"
	"log"
	"time"

	"github.com/vevocube/mona-voice/internal/models"
	"github.com/vevocube/mona-voice/internal/queue"
	"github.com/vevocube/mona-voice/internal/speech"
)

// ---------------------------------------------------------------------------
// Precache worker — drains the precache queue in the background, synthesizing
// known voice lines ahead of demand so interactive requests hit the cache.
// Failures are logged and dropped; a precache job is an optimization, not an
// obligation.
// ---------------------------------------------------------------------------

type Worker struct {
	queue        *queue.Queue
	orchestrator *speech.Orchestrator
}

func New(q *queue.Queue, orchestrator *speech.Orchestrator) *Worker {
	return &Worker{
		queue:        q,
		orchestrator: orchestrator,
	}
}

// Start begins draining the precache queue with the given number of
// concurrent synthesizer slots. Blocks until the context is cancelled.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	log.Printf("[Worker] Precache worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx)
	}

	<-ctx.Done()
	log.Printf("[Worker] Precache worker shutting down")
}

func (w *Worker) processQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[Worker] Error dequeuing precache job: %v", err)
				continue
			}

			if job == nil {
				continue // No job available, retry
			}

			w.handlePrecache(ctx, job)
		}
	}
}

func (w *Worker) handlePrecache(ctx context.Context, job *queue.Job) {
	log.Printf("[Worker] Precaching job %s (%d chars)", job.ID, len(job.Text))

	start := time.Now()
	res := w.orchestrator.Synthesize(ctx, models.SpeechRequest{
		Text:         job.Text,
		Backend:      job.Backend,
		WantTimeline: true,
	})

	switch {
	case res.CacheHit:
		log.Printf("[Worker] Job %s already cached", job.ID)
	case res.AudioFile == "":
		log.Printf("[Worker] Job %s failed: no backend could synthesize", job.ID)
	default:
		log.Printf("[Worker] Job %s precached via %s in %.2fs", job.ID, res.BackendUsed, time.Since(start).Seconds())
	}
}
