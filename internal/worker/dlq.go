package worker

// dlq.go: dead letter queue.
// Jobs whose handler failed after its retries land in dlq:{original_queue}
// for inspection; the replay cron may push them back once storage recovers.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQPrefix is prepended to a queue name to form its dead letter list.
const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string `json:"original_queue"`
	Job           Job    `json:"job"`
	Reason        string `json:"reason"`
	FailedAt      string `json:"failed_at"` // RFC 3339
	Attempts      int    `json:"attempts"`
}

// SendToDLQ pushes a failed job to the dead letter queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		Job:           job,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("reason", reason).
		Int("attempts", attempts).
		Int("replays", job.Replays).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// popDLQ takes the oldest entry off a DLQ. ok is false when the DLQ is empty.
func popDLQ(ctx context.Context, rdb *redis.Client, queue string) (entry DLQEntry, ok bool, err error) {
	raw, err := rdb.RPop(ctx, DLQPrefix+queue).Result()
	if err == redis.Nil {
		return DLQEntry{}, false, nil
	}
	if err != nil {
		return DLQEntry{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return DLQEntry{}, false, err
	}
	return entry, true, nil
}
