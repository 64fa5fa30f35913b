package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"habits/internal/core"
)

func seed(t *testing.T) (*Store, string, core.Habit) {
	t.Helper()
	s := New()
	ctx := context.Background()

	catID, err := s.CreateCategory(ctx, "user-1", "Health", "#4ade80")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	h := core.Habit{ID: "h1", Title: "Run", CategoryID: catID, Frequency: core.Daily()}
	if _, err := s.CreateHabit(ctx, "user-1", h); err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	return s, catID, h
}

func TestFetchCategoriesIsolation(t *testing.T) {
	s, _, _ := seed(t)
	ctx := context.Background()

	cats, err := s.FetchCategories(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchCategories() error = %v", err)
	}
	if len(cats) != 1 || len(cats[0].Habits) != 1 {
		t.Fatalf("tree = %+v", cats)
	}

	// A returned copy must not alias internal state.
	cats[0].Habits[0].Title = "mutated"
	fresh, _ := s.FetchCategories(ctx, "user-1")
	if fresh[0].Habits[0].Title != "Run" {
		t.Error("copy aliased internal state")
	}

	// Other users see nothing.
	other, _ := s.FetchCategories(ctx, "user-2")
	if len(other) != 0 {
		t.Errorf("user-2 tree = %+v, want empty", other)
	}
}

func TestHabitLifecycle(t *testing.T) {
	s, _, h := seed(t)
	ctx := context.Background()

	updated := h
	updated.Title = "Run 5k"
	updated.Frequency = core.OnDays(time.Monday)
	if err := s.UpdateHabit(ctx, "user-1", updated); err != nil {
		t.Fatalf("UpdateHabit() error = %v", err)
	}
	cats, _ := s.FetchCategories(ctx, "user-1")
	if cats[0].Habits[0].Title != "Run 5k" {
		t.Errorf("title = %s", cats[0].Habits[0].Title)
	}

	if err := s.DeleteHabit(ctx, "user-1", h.ID); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}
	cats, _ = s.FetchCategories(ctx, "user-1")
	if len(cats[0].Habits) != 0 {
		t.Error("habit survived delete")
	}
	if err := s.DeleteHabit(ctx, "user-1", h.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestCreateHabitUnknownCategory(t *testing.T) {
	s := New()
	h := core.Habit{ID: "h1", Title: "Run", CategoryID: "nope", Frequency: core.Daily()}
	if _, err := s.CreateHabit(context.Background(), "user-1", h); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("CreateHabit() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertCompletion(t *testing.T) {
	s, _, h := seed(t)
	ctx := context.Background()

	if err := s.UpsertCompletion(ctx, "user-1", h.ID, "2024-01-15", true); err != nil {
		t.Fatalf("UpsertCompletion() error = %v", err)
	}
	if err := s.UpsertCompletion(ctx, "user-1", h.ID, "2024-01-15", false); err != nil {
		t.Fatalf("UpsertCompletion() error = %v", err)
	}

	cats, _ := s.FetchCategories(ctx, "user-1")
	comps := cats[0].Habits[0].Completions
	if len(comps) != 1 {
		t.Fatalf("expected single record, got %d", len(comps))
	}
	if comps[0].Completed {
		t.Error("second upsert should have flipped to false")
	}
}

func TestDeleteCompletionsInRange(t *testing.T) {
	s, _, h := seed(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-13", "2024-01-14", "2024-01-20", "2024-01-21"} {
		s.UpsertCompletion(ctx, "user-1", h.ID, d, true)
	}
	if err := s.DeleteCompletionsInRange(ctx, "user-1", "2024-01-14", "2024-01-20"); err != nil {
		t.Fatalf("DeleteCompletionsInRange() error = %v", err)
	}

	cats, _ := s.FetchCategories(ctx, "user-1")
	comps := cats[0].Habits[0].Completions
	if len(comps) != 2 {
		t.Fatalf("surviving records = %d, want 2", len(comps))
	}
	for _, c := range comps {
		if c.Date != "2024-01-13" && c.Date != "2024-01-21" {
			t.Errorf("unexpected survivor %s", c.Date)
		}
	}
}

func TestQueryCompletions(t *testing.T) {
	s, catID, h := seed(t)
	ctx := context.Background()

	s.UpsertCompletion(ctx, "user-1", h.ID, "2024-01-15", true)
	s.UpsertCompletion(ctx, "user-1", h.ID, "2024-03-31", true)
	s.UpsertCompletion(ctx, "user-1", h.ID, "2024-04-01", true)

	records, err := s.QueryCompletions(ctx, "user-1", "2024-01-01", "2024-03-31")
	if err != nil {
		t.Fatalf("QueryCompletions() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	r := records[0]
	if r.HabitID != h.ID || r.HabitTitle != "Run" || r.CategoryID != catID || r.CategoryName != "Health" {
		t.Errorf("joined record = %+v", r)
	}

	// Open bounds return everything.
	all, _ := s.QueryCompletions(ctx, "user-1", "", "")
	if len(all) != 3 {
		t.Errorf("open query = %d, want 3", len(all))
	}
}
