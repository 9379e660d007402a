package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func finishedRun(kind string, total, succeeded, failed int) *models.UploadRun {
	run := models.NewUploadRun(0, kind, total, 4)
	run.SetStartedAt(time.Now().Add(-time.Minute))
	run.Complete(succeeded, failed)
	return run
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "upload_runs")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewUploadRun(0, models.RunKindPosts, 10, 8)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence())
		}
	})

	t.Run("create validation error", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Create(models.NewUploadRun(0, "pages", 1, 1)); err == nil {
			t.Fatal("expected validation error for unknown kind")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := finishedRun(models.RunKindAssets, 5, 4, 1)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Kind() != models.RunKindAssets || got.Total() != 5 || got.Succeeded() != 4 || got.Failed() != 1 {
			t.Errorf("unexpected run %s: total=%d succeeded=%d failed=%d", got.Kind(), got.Total(), got.Succeeded(), got.Failed())
		}
		if !got.Completed() {
			t.Error("expected completed_at to round-trip")
		}
		if got.Concurrency() != 4 {
			t.Errorf("expected concurrency 4, got %d", got.Concurrency())
		}

		bySeq, err := repo.GetBySequence(run.Sequence())
		if err != nil {
			t.Fatalf("failed to get run by sequence: %v", err)
		}
		if bySeq.ID() != run.ID() {
			t.Errorf("expected %s, got %s", run.ID(), bySeq.ID())
		}
	})

	t.Run("get not found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Complete", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewUploadRun(0, models.RunKindPosts, 3, 2)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Complete(run, 2, 1); err != nil {
			t.Fatalf("failed to complete run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if !got.Completed() || got.Succeeded() != 2 || got.Failed() != 1 {
			t.Errorf("expected completed 2/1, got completed=%v %d/%d", got.Completed(), got.Succeeded(), got.Failed())
		}
	})

	t.Run("update not found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewUploadRun(0, models.RunKindPosts, 1, 1)
		run.SetID("ghost")
		if err := repo.Update(run); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := finishedRun(models.RunKindPosts, 1, 1, 0)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get(run.ID()); err == nil {
			t.Error("expected deleted run to be hidden")
		}
		if err := repo.Delete(run.ID()); err == nil {
			t.Error("expected error deleting twice")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		for _, kind := range []string{models.RunKindAssets, models.RunKindPosts, models.RunKindPosts} {
			if err := repo.Create(finishedRun(kind, 2, 2, 0)); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 || all[0].Sequence() != 3 {
			t.Errorf("expected 3 runs newest first, got %d", len(all))
		}

		posts, err := repo.List(map[string]any{"kind": models.RunKindPosts})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(posts) != 2 {
			t.Errorf("expected 2 post runs, got %d", len(posts))
		}

		limited, err := repo.List(map[string]any{"limit": 1})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected 1 run, got %d", len(limited))
		}
	})
}

func TestRunRepository_RecordRun(t *testing.T) {
	t.Run("stores run and outcomes", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := finishedRun(models.RunKindPosts, 3, 2, 1)
		outcomes := []*models.UploadOutcome{
			models.NewUploadOutcome("", "b-post", ""),
			models.NewUploadOutcome("", "hello-world", "post already exists: hello-world"),
			models.NewUploadOutcome("", "a-post", ""),
		}

		if err := repo.RecordRun(run, outcomes); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}

		got, err := repo.Outcomes(run.ID())
		if err != nil {
			t.Fatalf("failed to read outcomes: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 outcomes, got %d", len(got))
		}

		if got[0].Identifier() != "hello-world" || got[0].Status() != models.OutcomeFailed {
			t.Errorf("expected failure first, got %s/%s", got[0].Identifier(), got[0].Status())
		}
		if got[0].ErrorMessage() != "post already exists: hello-world" {
			t.Errorf("unexpected error message %q", got[0].ErrorMessage())
		}
		if got[1].Identifier() != "a-post" || got[2].Identifier() != "b-post" {
			t.Errorf("expected successes sorted by identifier, got %s, %s", got[1].Identifier(), got[2].Identifier())
		}
		for _, o := range got {
			if o.RunID() != run.ID() {
				t.Errorf("expected run id %s, got %s", run.ID(), o.RunID())
			}
		}
	})

	t.Run("rolls back on duplicate identifier", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRunRepository(db)
		run := finishedRun(models.RunKindAssets, 2, 2, 0)
		outcomes := []*models.UploadOutcome{
			models.NewUploadOutcome("", "https://wp/a.jpg", ""),
			models.NewUploadOutcome("", "https://wp/a.jpg", ""),
		}

		if err := repo.RecordRun(run, outcomes); err == nil {
			t.Fatal("expected unique constraint error")
		}

		runs, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected run insert rolled back, found %d runs", len(runs))
		}
	})

	t.Run("outcomes of unknown run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		got, err := repo.Outcomes("missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no outcomes, got %d", len(got))
		}
	})
}
