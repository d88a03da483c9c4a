package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// Rendered is the output of one export.
type Rendered struct {
	Format      string
	Data        []byte
	ContentType string
	Extension   string
	Duration    time.Duration
}

// Worker renders export jobs.
type Worker struct {
	stats *ExportStats
	log   *slog.Logger
}

func NewWorker(stats *ExportStats, log *slog.Logger) *Worker {
	return &Worker{stats: stats, log: log}
}

// Render exports doc to format and records the latency sample. A backend
// panic is reported as an error.
func (w *Worker) Render(format string, doc *orgtree.Document, ov export.Overrides) (out Rendered, err error) {
	backend, err := export.Lookup(format)
	if err != nil {
		return Rendered{}, err
	}
	if doc == nil {
		return Rendered{}, fmt.Errorf("no document to export")
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s backend panicked: %v", backend.Name(), r)
		}
		elapsed := time.Since(start)
		if w.stats != nil {
			w.stats.Record(backend.Name(), elapsed.Milliseconds(), err != nil)
		}
		out.Duration = elapsed
	}()

	data, err := backend.ExportDocument(doc, ov)
	if err != nil {
		return Rendered{}, fmt.Errorf("export %s: %w", backend.Name(), err)
	}
	return Rendered{
		Format:      backend.Name(),
		Data:        data,
		ContentType: backend.ContentType(),
		Extension:   backend.Extension(),
	}, nil
}

// Process runs a queued job to completion.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "format", job.Format)

	if err := ctx.Err(); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	job.SetStatus(StatusRendering, "rendering")
	doc, ov := job.input()
	out, err := w.Render(job.Format, doc, ov)
	if err != nil {
		log.Error("export failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "rendering")
		return
	}

	job.SetResult(out.Data, out.ContentType, out.Extension)
	job.SetStatus(StatusCompleted, "done")
	log.Info("export completed", "bytes", len(out.Data), "duration_ms", out.Duration.Milliseconds())
}
