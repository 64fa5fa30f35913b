package remote

import (
	"context"

	"habits/internal/core"
)

// Ports for the remote persistence collaborator. Any call may fail; the
// mutation engine treats such failures as non-fatal to local state.
type (
	CategoryFetcher interface {
		// FetchCategories returns the full category tree (habits and
		// completions nested) for a user.
		FetchCategories(ctx context.Context, userID string) ([]core.Category, error)
	}

	CategoryWriter interface {
		// CreateCategory stores a category and returns its remote id.
		CreateCategory(ctx context.Context, userID, name, color string) (string, error)
	}

	HabitWriter interface {
		// CreateHabit stores a habit (without completions) and returns its
		// remote id.
		CreateHabit(ctx context.Context, userID string, h core.Habit) (string, error)
	}

	HabitUpdater interface {
		// UpdateHabit replaces a habit's title and frequency. Category and
		// id never change.
		UpdateHabit(ctx context.Context, userID string, h core.Habit) error
	}

	HabitDeleter interface {
		// DeleteHabit removes a habit and all its completion records.
		DeleteHabit(ctx context.Context, userID, habitID string) error
	}

	CompletionUpserter interface {
		// UpsertCompletion writes the completion flag for (habit, date),
		// updating in place when a record already exists.
		UpsertCompletion(ctx context.Context, userID, habitID, dateKey string, completed bool) error
	}

	CompletionDeleter interface {
		// DeleteCompletionsInRange removes every completion record whose
		// date falls within [startKey, endKey] inclusive.
		DeleteCompletionsInRange(ctx context.Context, userID, startKey, endKey string) error
	}

	CompletionQuerier interface {
		// QueryCompletions returns completions within [startKey, endKey]
		// inclusive, joined with habit and category metadata. Empty keys
		// leave that bound open.
		QueryCompletions(ctx context.Context, userID, startKey, endKey string) ([]core.CompletionRecord, error)
	}
)

// Store is the full remote collaborator contract.
type Store interface {
	CategoryFetcher
	CategoryWriter
	HabitWriter
	HabitUpdater
	HabitDeleter
	CompletionUpserter
	CompletionDeleter
	CompletionQuerier
}
