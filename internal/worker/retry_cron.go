package worker

// retry_cron.go
// Background goroutine that periodically moves failed export jobs from the
// DLQ back onto their queue. It skips ticks while the storage circuit breaker
// is open, and gives up on a job after MaxReplays round trips.

import (
	"context"
	"time"

	"dealerstock/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10

	// MaxReplays bounds how often a job may come back from the DLQ.
	MaxReplays = 3
)

// BreakerState is satisfied by *infra.ObjectStorage.
type BreakerState interface {
	State() infra.CBState
}

// RetryCronConfig holds all dependencies for the replay goroutine.
type RetryCronConfig struct {
	RDB     *redis.Client
	Storage BreakerState
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// replays DLQ entries. It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				replayDLQ(ctx, cfg, QueueExport)
			}
		}
	}()
}

// replayDLQ moves up to retryBatchSize entries from dlq:{queue} back to queue.
// Entries that exhausted MaxReplays are parked on dlq:{queue}:dead.
func replayDLQ(ctx context.Context, cfg RetryCronConfig, queue string) int {
	if cfg.Storage != nil && cfg.Storage.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: storage circuit breaker is open, skipping tick")
		return 0
	}

	replayed := 0
	for i := 0; i < retryBatchSize; i++ {
		entry, ok, err := popDLQ(ctx, cfg.RDB, queue)
		if err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("retry_cron: failed to read DLQ")
			return replayed
		}
		if !ok {
			break
		}

		job := entry.Job
		if job.Replays >= MaxReplays {
			SendToDLQ(ctx, cfg.RDB, queue+":dead", job, entry.Reason, entry.Attempts)
			continue
		}
		job.Replays++
		d := &Dispatcher{rdb: cfg.RDB}
		if err := d.push(ctx, queue, job); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("retry_cron: re-enqueue failed")
			SendToDLQ(ctx, cfg.RDB, queue, job, entry.Reason, entry.Attempts)
			return replayed
		}
		replayed++
	}
	if replayed > 0 {
		log.Info().Int("count", replayed).Str("queue", queue).Msg("retry_cron: replayed DLQ entries")
	}
	return replayed
}
