package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"habits/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "habits.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cats := []core.Category{
		{
			ID: "health", Name: "Health", Color: "#4ade80",
			Habits: []core.Habit{
				{
					ID: "h1", Title: "Run", CategoryID: "health",
					Frequency: core.OnDays(time.Monday, time.Friday),
					Completions: []core.Completion{
						{Date: "2024-01-15", Completed: true},
					},
				},
			},
		},
	}

	if err := repo.SaveSnapshot(ctx, "user-1", cats); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	got, err := repo.LoadSnapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(got) != 1 || len(got[0].Habits) != 1 {
		t.Fatalf("snapshot shape = %+v", got)
	}
	h := got[0].Habits[0]
	if h.Title != "Run" || h.Frequency.Type != core.FrequencyCustom {
		t.Errorf("habit = %+v", h)
	}
	if len(h.Completions) != 1 || !h.Completions[0].Completed {
		t.Errorf("completions = %+v", h.Completions)
	}
}

func TestSnapshotOverwrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []core.Category{{ID: "a", Name: "A", Color: "#111111"}}
	second := []core.Category{{ID: "b", Name: "B", Color: "#222222"}}

	if err := repo.SaveSnapshot(ctx, "user-1", first); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if err := repo.SaveSnapshot(ctx, "user-1", second); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	got, err := repo.LoadSnapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("snapshot = %+v, want latest write", got)
	}
}

func TestSnapshotMissingUser(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.LoadSnapshot(context.Background(), "nobody")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("LoadSnapshot() error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotsPerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.SaveSnapshot(ctx, "alice", []core.Category{{ID: "a", Name: "A", Color: "#111111"}})
	repo.SaveSnapshot(ctx, "bob", []core.Category{{ID: "b", Name: "B", Color: "#222222"}})

	got, err := repo.LoadSnapshot(ctx, "alice")
	if err != nil {
		t.Fatalf("LoadSnapshot(alice) error = %v", err)
	}
	if got[0].ID != "a" {
		t.Errorf("alice snapshot = %+v", got)
	}
}

func TestMarkers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetMarker(ctx, "last_week_checked"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetMarker() on empty table error = %v, want ErrNotFound", err)
	}

	if err := repo.SetMarker(ctx, "last_week_checked", "2024-01-14"); err != nil {
		t.Fatalf("SetMarker() error = %v", err)
	}
	v, err := repo.GetMarker(ctx, "last_week_checked")
	if err != nil {
		t.Fatalf("GetMarker() error = %v", err)
	}
	if v != "2024-01-14" {
		t.Errorf("marker = %s, want 2024-01-14", v)
	}

	// Upsert replaces.
	if err := repo.SetMarker(ctx, "last_week_checked", "2024-01-21"); err != nil {
		t.Fatalf("SetMarker() error = %v", err)
	}
	v, _ = repo.GetMarker(ctx, "last_week_checked")
	if v != "2024-01-21" {
		t.Errorf("marker = %s, want 2024-01-21", v)
	}
}
