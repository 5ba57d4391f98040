package history_test

import (
	"context"
	"path/filepath"
	"testing"

	"squeeze/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewJobAndLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	job, err := store.NewJob(ctx, &history.Job{
		JobID:      "job-1",
		Kind:       history.KindCompress,
		SourcePath: "/videos/in.mp4",
		Preset:     "medium",
		TargetMB:   10,
	})
	if err != nil {
		t.Fatalf("NewJob returned error: %v", err)
	}
	if job.Status != history.StatusPending {
		t.Fatalf("expected pending, got %q", job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Fatal("expected created_at set")
	}

	if err := store.SetStatus(ctx, job.ID, history.StatusEncoding, 1); err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}
	if err := store.SetStatus(ctx, job.ID, history.StatusEncoding, 2); err != nil {
		t.Fatalf("SetStatus pass 2 returned error: %v", err)
	}
	if err := store.MarkCompleted(ctx, job.ID, "/videos/out.mp4", 9.7); err != nil {
		t.Fatalf("MarkCompleted returned error: %v", err)
	}

	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.Status != history.StatusCompleted || got.Pass != 0 {
		t.Fatalf("unexpected final state %q pass=%d", got.Status, got.Pass)
	}
	if got.OutputPath != "/videos/out.mp4" || got.OutputSizeMB != 9.7 {
		t.Fatalf("unexpected output fields %+v", got)
	}
	if !got.Status.Terminal() {
		t.Fatal("completed must be terminal")
	}
}

func TestMarkFailed(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	job, err := store.NewJob(ctx, &history.Job{JobID: "job-2", Kind: history.KindDownload, SourceURL: "https://example.com/v"})
	if err != nil {
		t.Fatalf("NewJob returned error: %v", err)
	}
	if err := store.MarkFailed(ctx, job.ID, "  encode pass 1 failed (exit code 187)  "); err != nil {
		t.Fatalf("MarkFailed returned error: %v", err)
	}
	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.Status != history.StatusFailed {
		t.Fatalf("expected failed, got %q", got.Status)
	}
	if got.ErrorMessage != "encode pass 1 failed (exit code 187)" {
		t.Fatalf("expected trimmed message, got %q", got.ErrorMessage)
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	job, err := store.NewJob(ctx, &history.Job{JobID: "job-3", Kind: history.KindCompress})
	if err != nil {
		t.Fatalf("NewJob returned error: %v", err)
	}
	if err := store.SetStatus(ctx, job.ID, history.Status("paused"), 0); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestListNewestFirstAndClear(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.NewJob(ctx, &history.Job{JobID: id, Kind: history.KindCompress}); err != nil {
			t.Fatalf("NewJob(%s) returned error: %v", id, err)
		}
	}

	jobs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(jobs) != 2 || jobs[0].JobID != "c" || jobs[1].JobID != "b" {
		t.Fatalf("unexpected list order: %+v", jobs)
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	jobs, err = store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List after clear returned error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected empty history, got %d rows", len(jobs))
	}
}

func TestUpdateMissingJobFails(t *testing.T) {
	store := openStore(t)
	if err := store.MarkCompleted(context.Background(), 999, "x", 1); err == nil {
		t.Fatal("expected error for missing job")
	}
}
