package worker

// export_worker.go
// Consumes "export" jobs from the jobs:export queue.
// Flow:
//   1. Render the requested workbook (sales or replacements) into memory
//   2. Upload it to object storage under the key chosen at enqueue time
// Both steps are retried together; a job that still fails goes to the DLQ.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"dealerstock/internal/infra"

	"github.com/rs/zerolog/log"
)

// ExportPayload is the job body enqueued by the report service.
type ExportPayload struct {
	Kind        string `json:"kind"` // "sales" | "replacements"
	Key         string `json:"key"`
	RequestedBy string `json:"requested_by"`
}

// ExportRenderer writes the workbook for kind.
type ExportRenderer interface {
	WriteExport(ctx context.Context, kind string, w io.Writer) error
}

// Uploader stores rendered artifacts.
type Uploader interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// ExportWorker turns export jobs into stored XLSX files.
type ExportWorker struct {
	renderer ExportRenderer
	store    Uploader
}

// NewExportWorker returns a worker rendering with renderer and uploading to store.
func NewExportWorker(renderer ExportRenderer, store Uploader) *ExportWorker {
	return &ExportWorker{renderer: renderer, store: store}
}

// Handle is the Handler registered for JobExport.
func (w *ExportWorker) Handle(ctx context.Context, job Job) error {
	var payload ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("export payload: %w", err)
	}
	if payload.Key == "" {
		return fmt.Errorf("export payload: empty key")
	}

	err := withRetry(ctx, maxAttempts, func(attempt int) error {
		var buf bytes.Buffer
		if err := w.renderer.WriteExport(ctx, payload.Kind, &buf); err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("key", payload.Key).Msg("export_worker: render failed, retrying")
			return err
		}
		if err := w.store.Put(ctx, payload.Key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), infra.XLSXContentType); err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("key", payload.Key).Msg("export_worker: upload failed, retrying")
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("kind", payload.Kind).Str("key", payload.Key).Str("requested_by", payload.RequestedBy).Msg("export_worker: export stored")
	return nil
}
