package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/orgdoc/internal/config"
	"github.com/dgallion1/orgdoc/internal/export"
	_ "github.com/dgallion1/orgdoc/internal/export/mdexp"
	"github.com/dgallion1/orgdoc/internal/orgtree"
)

type panicBackend struct{}

func (panicBackend) Name() string        { return "panicky" }
func (panicBackend) Extension() string   { return ".x" }
func (panicBackend) ContentType() string { return "text/plain" }
func (panicBackend) ExportDocument(*orgtree.Document, export.Overrides) ([]byte, error) {
	panic("boom")
}

func init() {
	export.Register(panicBackend{})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleDoc() *orgtree.Document {
	doc := &orgtree.Document{Children: []*orgtree.Node{
		orgtree.NewHeadline(1, "Intro", orgtree.NewSection(orgtree.NewParagraph(orgtree.Text("hello")))),
	}}
	doc.SetKeyword("TITLE", "Notes")
	return doc
}

func TestWorker_Render(t *testing.T) {
	stats := NewExportStats(time.Hour)
	w := NewWorker(stats, discardLogger())

	out, err := w.Render("markdown", sampleDoc(), export.Overrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Format != "md" || out.Extension != ".md" {
		t.Errorf("expected md/.md, got %q/%q", out.Format, out.Extension)
	}
	if !strings.Contains(string(out.Data), "hello") {
		t.Errorf("expected rendered body, got %q", out.Data)
	}
	if got := stats.Snapshot()["md"].Count; got != 1 {
		t.Errorf("expected 1 md sample, got %d", got)
	}
}

func TestWorker_RenderErrors(t *testing.T) {
	stats := NewExportStats(time.Hour)
	w := NewWorker(stats, discardLogger())

	if _, err := w.Render("rtf", sampleDoc(), export.Overrides{}); !errors.Is(err, export.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	_, err := w.Render("panicky", sampleDoc(), export.Overrides{})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected recovered panic, got %v", err)
	}
	if got := stats.Snapshot()["panicky"].Failures; got != 1 {
		t.Errorf("expected 1 failure, got %d", got)
	}
}

func TestWorker_ProcessFailure(t *testing.T) {
	w := NewWorker(NewExportStats(time.Hour), discardLogger())
	job := NewJob("panicky", "x", sampleDoc(), export.Overrides{})
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || len(snap.Errors) != 1 {
		t.Errorf("expected failed job with one error, got %+v", snap)
	}
}

func TestOrchestrator_SubmitAndComplete(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour, StatsWindow: time.Hour}
	orch := NewOrchestrator(cfg, discardLogger())
	orch.Start(context.Background())
	defer orch.Stop()

	job := NewJob("md", "notes", sampleDoc(), export.Overrides{})
	if err := orch.Submit(job); err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
	if orch.GetJob(job.ID) != job {
		t.Fatal("expected job to be tracked")
	}

	deadline := time.Now().Add(2 * time.Second)
	for job.Snapshot().Status != StatusCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete, status %q", job.Snapshot().Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
	data, _, name, ok := job.Result()
	if !ok || name != "notes.md" || !strings.Contains(string(data), "hello") {
		t.Errorf("unexpected result %q %q", name, data)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	orch := NewOrchestrator(cfg, discardLogger())

	if err := orch.Submit(NewJob("md", "a", sampleDoc(), export.Overrides{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := NewJob("md", "b", sampleDoc(), export.Overrides{})
	err := orch.Submit(second)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed")
	}
	if orch.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", orch.QueueDepth())
	}
}
