package amqp

import (
	"encoding/json"
	"time"

	"habits/internal/core"
)

// MessageKind discriminates the sync message variants on the wire.
type MessageKind string

const (
	KindHabitUpsert MessageKind = "habit_upsert"
	KindHabitDelete MessageKind = "habit_delete"
	KindCompletion  MessageKind = "completion"
)

// SyncMessage is the write-behind envelope published after every local
// mutation. The worker replays it against the remote store.
type SyncMessage struct {
	Kind      MessageKind `json:"kind"`
	UserID    string      `json:"userId"`
	Habit     *core.Habit `json:"habit,omitempty"`
	HabitID   string      `json:"habitId,omitempty"`
	Date      string      `json:"date,omitempty"`
	Completed bool        `json:"completed,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewHabitSyncMessage creates an upsert message carrying the full habit.
func NewHabitSyncMessage(userID string, h core.Habit) *SyncMessage {
	return &SyncMessage{
		Kind:      KindHabitUpsert,
		UserID:    userID,
		Habit:     &h,
		HabitID:   h.ID,
		Timestamp: time.Now(),
	}
}

// NewHabitDeleteMessage creates a delete message for a habit id.
func NewHabitDeleteMessage(userID, habitID string) *SyncMessage {
	return &SyncMessage{
		Kind:      KindHabitDelete,
		UserID:    userID,
		HabitID:   habitID,
		Timestamp: time.Now(),
	}
}

// NewCompletionSyncMessage creates a message for a toggled completion.
func NewCompletionSyncMessage(userID, habitID, dateKey string, completed bool) *SyncMessage {
	return &SyncMessage{
		Kind:      KindCompletion,
		UserID:    userID,
		HabitID:   habitID,
		Date:      dateKey,
		Completed: completed,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON creates a message from JSON bytes
func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
