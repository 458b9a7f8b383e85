package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// QueueExport is the Redis list export jobs are pushed to.
	QueueExport = "jobs:export"

	// JobExport is the Job.Type of spreadsheet exports.
	JobExport = "export"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	// Replays counts how many times the job came back from the DLQ.
	Replays int `json:"replays,omitempty"`
}

// Handler processes one job. A returned error sends the job to the DLQ;
// handlers do their own retrying first.
type Handler func(ctx context.Context, job Job) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

// NewDispatcher returns a Dispatcher writing to rdb.
func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueExport pushes a spreadsheet export job to Redis.
func (d *Dispatcher) EnqueueExport(ctx context.Context, payload ExportPayload) error {
	return d.enqueue(ctx, QueueExport, JobExport, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return fmt.Errorf("dispatcher: redis not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return d.push(ctx, queue, Job{Type: jobType, Payload: data})
}

func (d *Dispatcher) push(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueExport).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	handle, ok := handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, rdb, queue, job, "no handler for job type", 0)
		return
	}

	start := time.Now()
	if err := handle(ctx, job); err != nil {
		log.Error().Err(err).Str("type", job.Type).Str("queue", queue).Msg("job failed")
		SendToDLQ(ctx, rdb, queue, job, err.Error(), maxAttempts)
		return
	}
	log.Info().Str("type", job.Type).Str("queue", queue).Dur("took", time.Since(start)).Msg("job done")
}

const maxAttempts = 3

// retryBaseDelay is the first backoff step; tests shrink it.
var retryBaseDelay = time.Second

// withRetry calls fn up to attempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = base, 3 = 2×base.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, attempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := retryBaseDelay * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
