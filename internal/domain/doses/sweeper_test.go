package doses

import (
	"context"
	"testing"
	"time"

	"med-adherence-dashboard/internal/platform/logger"
)

func newTestSweeper(repo Repository, now time.Time) *Sweeper {
	sw := NewSweeper(repo, logger.New(logger.Options{Level: logger.Error}))
	sw.now = func() time.Time { return now }
	return sw
}

func TestSweeper_MarksOverdueOnly(t *testing.T) {
	repo := newTestRepo()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	add := func(id string, scheduled time.Time, taken, missed bool) {
		repo.byID[key("u1", id)] = Dose{ID: id, OwnerUserID: "u1", ScheduledAt: scheduled, Taken: taken, Missed: missed}
	}
	add("overdue", now.Add(-2*time.Hour), false, false)
	add("due", now.Add(-10*time.Minute), false, false)     // dentro de la ventana
	add("upcoming", now.Add(time.Hour), false, false)
	add("already-taken", now.Add(-3*time.Hour), true, false)
	add("already-missed", now.Add(-3*time.Hour), false, true)

	sw := newTestSweeper(repo, now)

	results, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(results) != 1 || results[0].DoseID != "overdue" {
		t.Fatalf("results = %+v, want solo 'overdue'", results)
	}
	if results[0].Err != nil {
		t.Fatalf("unexpected per-dose error: %v", results[0].Err)
	}

	got, _ := repo.GetByID(context.Background(), "u1", "overdue")
	if !got.Missed || got.Taken {
		t.Fatalf("overdue dose: taken=%v missed=%v, want missed=true", got.Taken, got.Missed)
	}

	// Las demás no se tocaron
	for _, id := range []string{"due", "upcoming"} {
		d, _ := repo.GetByID(context.Background(), "u1", id)
		if d.Missed {
			t.Fatalf("dose %q must stay pending", id)
		}
	}
	d, _ := repo.GetByID(context.Background(), "u1", "already-taken")
	if d.Missed {
		t.Fatal("taken dose must never get missed=true")
	}
}

func TestSweeper_Idempotent(t *testing.T) {
	repo := newTestRepo()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	repo.byID[key("u1", "d1")] = Dose{ID: "d1", OwnerUserID: "u1", ScheduledAt: now.Add(-2 * time.Hour)}

	sw := newTestSweeper(repo, now)

	if _, err := sw.Sweep(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	writes := repo.markMissedCalls

	// Segunda pasada sin avance del reloj ni mutaciones: cero escrituras nuevas
	results, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("second sweep results = %+v, want vacío", results)
	}
	if repo.markMissedCalls != writes {
		t.Fatalf("second sweep wrote %d times", repo.markMissedCalls-writes)
	}
}

func TestSweeper_FailureDoesNotAbortBatch(t *testing.T) {
	repo := newTestRepo()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	repo.byID[key("u1", "bad")] = Dose{ID: "bad", OwnerUserID: "u1", ScheduledAt: now.Add(-3 * time.Hour)}
	repo.byID[key("u1", "good")] = Dose{ID: "good", OwnerUserID: "u1", ScheduledAt: now.Add(-2 * time.Hour)}
	repo.failMarkMissed["bad"] = true

	sw := newTestSweeper(repo, now)

	results, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep must not be fatal on per-dose failure: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byID := map[string]SweepResult{}
	for _, r := range results {
		byID[r.DoseID] = r
	}
	if byID["bad"].Err == nil {
		t.Fatal("expected collected error for 'bad'")
	}
	if byID["good"].Err != nil {
		t.Fatalf("'good' must succeed, got %v", byID["good"].Err)
	}

	got, _ := repo.GetByID(context.Background(), "u1", "good")
	if !got.Missed {
		t.Fatal("'good' must be marked missed despite the earlier failure")
	}
}
