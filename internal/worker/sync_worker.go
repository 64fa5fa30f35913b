package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"habits/internal/amqp"
	"habits/internal/core"
	"habits/internal/remote"
)

// SyncWorker replays queued mutations against the remote store. The
// server already applied them locally and attempted one best-effort
// remote write; the worker covers the deliveries that attempt missed.
type SyncWorker struct {
	store remote.Store
}

func NewSyncWorker(store remote.Store) *SyncWorker {
	return &SyncWorker{store: store}
}

// HandleSyncMessage applies a single sync message. Errors propagate so
// the consumer can requeue the delivery.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"kind", msg.Kind,
		"user_id", msg.UserID,
		"habit_id", msg.HabitID)

	switch msg.Kind {
	case amqp.KindHabitUpsert:
		if msg.Habit == nil {
			return fmt.Errorf("habit upsert message without habit payload")
		}
		return w.upsertHabit(ctx, msg)
	case amqp.KindHabitDelete:
		if err := w.store.DeleteHabit(ctx, msg.UserID, msg.HabitID); err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	case amqp.KindCompletion:
		if err := w.store.UpsertCompletion(ctx, msg.UserID, msg.HabitID, msg.Date, msg.Completed); err != nil {
			return fmt.Errorf("upsert completion: %w", err)
		}
		return nil
	default:
		// Unknown kinds are dropped rather than requeued forever.
		slog.WarnContext(ctx, "Skipping sync message of unknown kind", "kind", msg.Kind)
		return nil
	}
}

// upsertHabit tries an update first and falls back to create, so the
// same message kind covers both the add and edit paths. Only a missing
// habit falls through to create; any other failure propagates so the
// delivery is requeued instead of appending a duplicate row.
func (w *SyncWorker) upsertHabit(ctx context.Context, msg *amqp.SyncMessage) error {
	err := w.store.UpdateHabit(ctx, msg.UserID, *msg.Habit)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("update habit: %w", err)
	}
	if _, err := w.store.CreateHabit(ctx, msg.UserID, *msg.Habit); err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}
