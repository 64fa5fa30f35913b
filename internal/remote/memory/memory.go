package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"habits/internal/core"
	"habits/internal/remote"
)

// Store is an in-memory remote.Store used in development and tests.
type Store struct {
	mu    sync.RWMutex
	users map[string][]core.Category
}

var _ remote.Store = (*Store)(nil)

func New() *Store {
	return &Store{users: make(map[string][]core.Category)}
}

// FetchCategories implements remote.CategoryFetcher
func (s *Store) FetchCategories(ctx context.Context, userID string) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopy(s.users[userID]), nil
}

// CreateCategory implements remote.CategoryWriter
func (s *Store) CreateCategory(ctx context.Context, userID, name, color string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[userID] = append(s.users[userID], core.Category{ID: id, Name: name, Color: color})
	return id, nil
}

// CreateHabit implements remote.HabitWriter
func (s *Store) CreateHabit(ctx context.Context, userID string, h core.Habit) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats := s.users[userID]
	for i := range cats {
		if cats[i].ID == h.CategoryID {
			if h.ID == "" {
				h.ID = uuid.NewString()
			}
			cats[i].Habits = append(cats[i].Habits, h)
			return h.ID, nil
		}
	}
	return "", fmt.Errorf("category %s: %w", h.CategoryID, core.ErrNotFound)
}

// UpdateHabit implements remote.HabitUpdater
func (s *Store) UpdateHabit(ctx context.Context, userID string, h core.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, hi, ok := s.find(userID, h.ID)
	if !ok {
		return fmt.Errorf("habit %s: %w", h.ID, core.ErrNotFound)
	}
	target := &s.users[userID][ci].Habits[hi]
	target.Title = h.Title
	target.Frequency = h.Frequency
	return nil
}

// DeleteHabit implements remote.HabitDeleter
func (s *Store) DeleteHabit(ctx context.Context, userID, habitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, hi, ok := s.find(userID, habitID)
	if !ok {
		return fmt.Errorf("habit %s: %w", habitID, core.ErrNotFound)
	}
	habits := s.users[userID][ci].Habits
	s.users[userID][ci].Habits = append(habits[:hi], habits[hi+1:]...)
	return nil
}

// UpsertCompletion implements remote.CompletionUpserter
func (s *Store) UpsertCompletion(ctx context.Context, userID, habitID, dateKey string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, hi, ok := s.find(userID, habitID)
	if !ok {
		return fmt.Errorf("habit %s: %w", habitID, core.ErrNotFound)
	}
	h := &s.users[userID][ci].Habits[hi]
	for i := range h.Completions {
		if h.Completions[i].Date == dateKey {
			h.Completions[i].Completed = completed
			return nil
		}
	}
	h.Completions = append(h.Completions, core.Completion{Date: dateKey, Completed: completed})
	return nil
}

// DeleteCompletionsInRange implements remote.CompletionDeleter
func (s *Store) DeleteCompletionsInRange(ctx context.Context, userID, startKey, endKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats := s.users[userID]
	for ci := range cats {
		for hi := range cats[ci].Habits {
			h := &cats[ci].Habits[hi]
			kept := h.Completions[:0]
			for _, c := range h.Completions {
				if c.Date >= startKey && c.Date <= endKey {
					continue
				}
				kept = append(kept, c)
			}
			h.Completions = kept
		}
	}
	return nil
}

// QueryCompletions implements remote.CompletionQuerier
func (s *Store) QueryCompletions(ctx context.Context, userID, startKey, endKey string) ([]core.CompletionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.CompletionRecord
	for _, cat := range s.users[userID] {
		for _, h := range cat.Habits {
			for _, c := range h.Completions {
				if startKey != "" && c.Date < startKey {
					continue
				}
				if endKey != "" && c.Date > endKey {
					continue
				}
				out = append(out, core.CompletionRecord{
					Date:          c.Date,
					Completed:     c.Completed,
					HabitID:       h.ID,
					HabitTitle:    h.Title,
					CategoryID:    cat.ID,
					CategoryName:  cat.Name,
					CategoryColor: cat.Color,
				})
			}
		}
	}
	return out, nil
}

func (s *Store) find(userID, habitID string) (int, int, bool) {
	cats := s.users[userID]
	for ci := range cats {
		for hi := range cats[ci].Habits {
			if cats[ci].Habits[hi].ID == habitID {
				return ci, hi, true
			}
		}
	}
	return 0, 0, false
}

func deepCopy(in []core.Category) []core.Category {
	out := make([]core.Category, len(in))
	for i, cat := range in {
		out[i] = cat
		out[i].Habits = make([]core.Habit, len(cat.Habits))
		for j, h := range cat.Habits {
			out[i].Habits[j] = h
			out[i].Habits[j].Completions = append([]core.Completion(nil), h.Completions...)
		}
	}
	return out
}
