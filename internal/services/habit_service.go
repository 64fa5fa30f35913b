package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"habits/internal/core"
	"habits/internal/remote"
	"habits/internal/session"
)

// MarkerLastWeekChecked is the local-cache marker key holding the most
// recent week boundary the weekly reset has processed.
const MarkerLastWeekChecked = "last_week_checked"

// SnapshotStore is the durable local cache: the whole category tree as
// one blob per user, plus string markers. Implemented by storage.SQLiteRepository.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, userID string, categories []core.Category) error
	LoadSnapshot(ctx context.Context, userID string) ([]core.Category, error)
	GetMarker(ctx context.Context, key string) (string, error)
	SetMarker(ctx context.Context, key, value string) error
}

// SyncPublisher emits mutation messages for the write-behind worker.
// Implemented by amqp.Client; a nil publisher disables sync.
type SyncPublisher interface {
	PublishHabitSync(ctx context.Context, userID string, h core.Habit) error
	PublishHabitDelete(ctx context.Context, userID, habitID string) error
	PublishCompletionSync(ctx context.Context, userID, habitID, dateKey string, completed bool) error
}

// HabitData carries the caller-supplied fields of a new habit.
type HabitData struct {
	Title     string
	Frequency core.Frequency
}

// HabitUpdate is a partial habit update. Nil fields are left untouched;
// id and category can never change.
type HabitUpdate struct {
	Title     *string
	Frequency *core.Frequency
}

// ToggleResult is the structured outcome of a completion toggle. The
// weekly-completion signal is computed inside the same operation that
// applies the toggle so callers never re-derive it.
type ToggleResult struct {
	Completed               bool
	WeeklyCompletionReached bool
}

// HabitService owns the in-memory category tree and applies every
// mutation locally first. Remote writes are best-effort mirrors: a
// failure is logged and swallowed, never rolled back locally. A mutex
// keeps each mutation atomic with respect to the tree.
type HabitService struct {
	mu         sync.Mutex
	categories []core.Category

	remote    remote.Store
	snapshots SnapshotStore
	publisher SyncPublisher

	// now is swappable for tests.
	now func() time.Time
}

// NewHabitService wires the engine. remote, snapshots and publisher may
// each be nil; the corresponding side effect is then skipped.
func NewHabitService(remoteStore remote.Store, snapshots SnapshotStore, publisher SyncPublisher) *HabitService {
	return &HabitService{
		remote:    remoteStore,
		snapshots: snapshots,
		publisher: publisher,
		now:       time.Now,
	}
}

// defaultCategories seeds a fresh user's tree.
func defaultCategories() []core.Category {
	return []core.Category{
		{ID: "health", Name: "Health", Color: "#4ade80"},
		{ID: "productivity", Name: "Productivity", Color: "#60a5fa"},
		{ID: "personal", Name: "Personal", Color: "#f472b6"},
	}
}

// Load populates the in-memory tree: from the remote store when the
// session is authenticated, falling back to the local snapshot, falling
// back to the default seed categories. New remote users get the seed
// pushed best-effort.
func (s *HabitService) Load(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.Authenticated() && s.remote != nil {
		cats, err := s.remote.FetchCategories(ctx, sess.UserID)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "Remote fetch failed, falling back to local snapshot",
				"user_id", sess.UserID, "error", err)
		case len(cats) > 0:
			s.categories = cats
			s.saveSnapshotLocked(ctx, sess)
			return nil
		default:
			// Fresh remote user: seed defaults and mirror them out.
			s.categories = defaultCategories()
			for i := range s.categories {
				id, err := s.remote.CreateCategory(ctx, sess.UserID, s.categories[i].Name, s.categories[i].Color)
				if err != nil {
					slog.WarnContext(ctx, "Failed to seed category remotely, keeping local id",
						"category", s.categories[i].Name, "error", err)
					continue
				}
				s.categories[i].ID = id
			}
			s.saveSnapshotLocked(ctx, sess)
			return nil
		}
	}

	if s.snapshots != nil {
		cats, err := s.snapshots.LoadSnapshot(ctx, sess.UserID)
		if err == nil && len(cats) > 0 {
			s.categories = cats
			return nil
		}
		if err != nil && err != core.ErrNotFound {
			slog.WarnContext(ctx, "Failed to load local snapshot", "error", err)
		}
	}

	s.categories = defaultCategories()
	s.saveSnapshotLocked(ctx, sess)
	return nil
}

// Categories returns a deep copy of the current tree.
func (s *HabitService) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCategories(s.categories)
}

// AddHabit creates a habit inside the named category. The habit starts
// with an empty completion set and a locally generated id that the
// remote mirror adopts.
func (s *HabitService) AddHabit(ctx context.Context, sess session.Session, categoryID string, data HabitData) (core.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := core.Habit{
		ID:         uuid.NewString(),
		Title:      data.Title,
		CategoryID: categoryID,
		Frequency:  data.Frequency,
	}
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}

	catIdx := -1
	for i := range s.categories {
		if s.categories[i].ID == categoryID {
			catIdx = i
			break
		}
	}
	if catIdx < 0 {
		return core.Habit{}, fmt.Errorf("category %s: %w", categoryID, core.ErrNotFound)
	}

	if sess.Authenticated() && s.remote != nil {
		if _, err := s.remote.CreateHabit(ctx, sess.UserID, h); err != nil {
			slog.WarnContext(ctx, "Remote habit create failed, continuing with local state",
				"habit_id", h.ID, "error", err)
		}
	}

	s.categories[catIdx].Habits = append(s.categories[catIdx].Habits, h)
	s.saveSnapshotLocked(ctx, sess)
	s.publishHabitSync(ctx, sess, h)

	slog.InfoContext(ctx, "Habit added",
		"habit_id", h.ID, "category_id", categoryID, "title", h.Title)
	return h, nil
}

// ToggleCompletion flips the completion flag for (habit, day). The first
// toggle for a day inserts a completed record; later toggles alternate
// the flag in place, so at most one record exists per day. The returned
// result reports the post-toggle state and whether the habit just became
// fully completed for the current week.
func (s *HabitService) ToggleCompletion(ctx context.Context, sess session.Session, habitID string, day time.Time) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ci, hi, ok := s.findHabitLocked(habitID)
	if !ok {
		return ToggleResult{}, fmt.Errorf("habit %s: %w", habitID, core.ErrNotFound)
	}
	habit := &s.categories[ci].Habits[hi]
	dateKey := core.DateKey(day)

	newState := true
	found := false
	for i := range habit.Completions {
		if habit.Completions[i].Date == dateKey {
			newState = !habit.Completions[i].Completed
			habit.Completions[i].Completed = newState
			found = true
			break
		}
	}
	if !found {
		habit.Completions = append(habit.Completions, core.Completion{Date: dateKey, Completed: true})
	}

	result := ToggleResult{Completed: newState}
	if newState {
		weekly, err := IsWeeklyComplete(*habit, core.WeekDates(s.now()))
		if err != nil {
			return ToggleResult{}, err
		}
		result.WeeklyCompletionReached = weekly
	}

	if sess.Authenticated() && s.remote != nil {
		if err := s.remote.UpsertCompletion(ctx, sess.UserID, habitID, dateKey, newState); err != nil {
			slog.WarnContext(ctx, "Remote completion upsert failed, continuing with local state",
				"habit_id", habitID, "date", dateKey, "error", err)
		}
	}

	s.saveSnapshotLocked(ctx, sess)
	if s.publisher != nil {
		if err := s.publisher.PublishCompletionSync(ctx, sess.UserID, habitID, dateKey, newState); err != nil {
			slog.WarnContext(ctx, "Failed to publish completion sync message",
				"habit_id", habitID, "date", dateKey, "error", err)
		}
	}

	slog.InfoContext(ctx, "Completion toggled",
		"habit_id", habitID, "date", dateKey,
		"completed", newState, "weekly_complete", result.WeeklyCompletionReached)
	return result, nil
}

// DeleteHabit removes the habit and every completion record it owns.
func (s *HabitService) DeleteHabit(ctx context.Context, sess session.Session, habitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ci, hi, ok := s.findHabitLocked(habitID)
	if !ok {
		return fmt.Errorf("habit %s: %w", habitID, core.ErrNotFound)
	}

	if sess.Authenticated() && s.remote != nil {
		if err := s.remote.DeleteHabit(ctx, sess.UserID, habitID); err != nil {
			slog.WarnContext(ctx, "Remote habit delete failed, continuing with local state",
				"habit_id", habitID, "error", err)
		}
	}

	habits := s.categories[ci].Habits
	s.categories[ci].Habits = append(habits[:hi], habits[hi+1:]...)
	s.saveSnapshotLocked(ctx, sess)
	if s.publisher != nil {
		if err := s.publisher.PublishHabitDelete(ctx, sess.UserID, habitID); err != nil {
			slog.WarnContext(ctx, "Failed to publish habit delete message",
				"habit_id", habitID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Habit deleted", "habit_id", habitID)
	return nil
}

// UpdateHabit merges the provided fields into an existing habit. Neither
// the id nor the owning category can change.
func (s *HabitService) UpdateHabit(ctx context.Context, sess session.Session, habitID string, update HabitUpdate) (core.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ci, hi, ok := s.findHabitLocked(habitID)
	if !ok {
		return core.Habit{}, fmt.Errorf("habit %s: %w", habitID, core.ErrNotFound)
	}
	habit := &s.categories[ci].Habits[hi]

	merged := *habit
	if update.Title != nil {
		merged.Title = *update.Title
	}
	if update.Frequency != nil {
		merged.Frequency = *update.Frequency
	}
	if err := merged.Validate(); err != nil {
		return core.Habit{}, err
	}

	if sess.Authenticated() && s.remote != nil {
		if err := s.remote.UpdateHabit(ctx, sess.UserID, merged); err != nil {
			slog.WarnContext(ctx, "Remote habit update failed, continuing with local state",
				"habit_id", habitID, "error", err)
		}
	}

	*habit = merged
	s.saveSnapshotLocked(ctx, sess)
	s.publishHabitSync(ctx, sess, merged)

	slog.InfoContext(ctx, "Habit updated", "habit_id", habitID)
	return merged, nil
}

// ClearCurrentWeekCompletions removes every completion whose date falls
// inside the Sunday-starting week containing now, across all habits.
// Completions outside the week are untouched.
func (s *HabitService) ClearCurrentWeekCompletions(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	start := core.WeekStart(now)
	startKey := core.DateKey(start)
	endKey := core.DateKey(start.AddDate(0, 0, 6))

	removed := 0
	for ci := range s.categories {
		for hi := range s.categories[ci].Habits {
			h := &s.categories[ci].Habits[hi]
			kept := h.Completions[:0]
			for _, c := range h.Completions {
				if c.Date >= startKey && c.Date <= endKey {
					removed++
					continue
				}
				kept = append(kept, c)
			}
			h.Completions = kept
		}
	}

	if sess.Authenticated() && s.remote != nil {
		if err := s.remote.DeleteCompletionsInRange(ctx, sess.UserID, startKey, endKey); err != nil {
			slog.WarnContext(ctx, "Remote week clear failed, continuing with local state",
				"week_start", startKey, "error", err)
		}
	}
	s.saveSnapshotLocked(ctx, sess)

	slog.InfoContext(ctx, "Current week completions cleared",
		"week_start", startKey, "week_end", endKey, "removed", removed)
	return nil
}

// RunWeeklyResetIfNeeded compares the persisted last-week-checked marker
// to the current week boundary and, when they differ, clears the current
// week's completions and advances the marker. Idempotent for a given
// marker value; intended to run once per session start and from the
// weekly cron sweep.
func (s *HabitService) RunWeeklyResetIfNeeded(ctx context.Context, sess session.Session) (bool, error) {
	currentWeekKey := core.DateKey(core.WeekStart(s.now()))

	if s.snapshots != nil {
		last, err := s.snapshots.GetMarker(ctx, MarkerLastWeekChecked)
		if err != nil && err != core.ErrNotFound {
			return false, fmt.Errorf("read last week marker: %w", err)
		}
		if last == currentWeekKey {
			return false, nil
		}
	}

	if err := s.ClearCurrentWeekCompletions(ctx, sess); err != nil {
		return false, err
	}
	if s.snapshots != nil {
		if err := s.snapshots.SetMarker(ctx, MarkerLastWeekChecked, currentWeekKey); err != nil {
			return false, fmt.Errorf("update last week marker: %w", err)
		}
	}

	slog.InfoContext(ctx, "Weekly reset performed", "week_start", currentWeekKey)
	return true, nil
}

// Export returns completions within the optional [startKey, endKey]
// range joined with habit and category metadata. Requires an
// authenticated session and a reachable remote store; unlike mutations,
// failures here surface to the caller.
func (s *HabitService) Export(ctx context.Context, sess session.Session, startKey, endKey string) ([]core.CompletionRecord, error) {
	if !sess.Authenticated() {
		return nil, core.ErrUnauthenticated
	}
	if s.remote == nil {
		return nil, core.ErrRemoteUnavailable
	}
	records, err := s.remote.QueryCompletions(ctx, sess.UserID, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	return records, nil
}

// QuarterlySummary fetches the quarter's completions from the remote
// store and reduces them with core.QuarterlySummary.
func (s *HabitService) QuarterlySummary(ctx context.Context, sess session.Session, year, quarter int) (core.Summary, error) {
	start, end, err := core.QuarterRange(year, quarter)
	if err != nil {
		return core.Summary{}, err
	}
	records, err := s.Export(ctx, sess, core.DateKey(start), core.DateKey(end))
	if err != nil {
		return core.Summary{}, err
	}
	return core.QuarterlySummary(records, year, quarter)
}

// WeekDates exposes the current week's dates under the service clock.
func (s *HabitService) WeekDates() []time.Time {
	return core.WeekDates(s.now())
}

// SetClock overrides the service clock. Test use only.
func (s *HabitService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *HabitService) findHabitLocked(habitID string) (int, int, bool) {
	for ci := range s.categories {
		for hi := range s.categories[ci].Habits {
			if s.categories[ci].Habits[hi].ID == habitID {
				return ci, hi, true
			}
		}
	}
	return 0, 0, false
}

func (s *HabitService) saveSnapshotLocked(ctx context.Context, sess session.Session) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.SaveSnapshot(ctx, sess.UserID, s.categories); err != nil {
		slog.WarnContext(ctx, "Failed to save local snapshot", "error", err)
	}
}

func (s *HabitService) publishHabitSync(ctx context.Context, sess session.Session, h core.Habit) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishHabitSync(ctx, sess.UserID, h); err != nil {
		slog.WarnContext(ctx, "Failed to publish habit sync message",
			"habit_id", h.ID, "error", err)
	}
}

func copyCategories(in []core.Category) []core.Category {
	out := make([]core.Category, len(in))
	for i, cat := range in {
		out[i] = cat
		out[i].Habits = make([]core.Habit, len(cat.Habits))
		for j, h := range cat.Habits {
			out[i].Habits[j] = h
			out[i].Habits[j].Completions = append([]core.Completion(nil), h.Completions...)
			out[i].Habits[j].Frequency.Days = append([]time.Weekday(nil), h.Frequency.Days...)
		}
	}
	return out
}
