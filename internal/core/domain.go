package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	// FrequencyDaily means the habit is due every calendar day.
	FrequencyDaily FrequencyType = "daily"
	// FrequencyCustom means the habit is due only on its configured weekdays.
	FrequencyCustom FrequencyType = "custom"
)

type (
	FrequencyType string

	// Frequency describes on which days a habit is due. Days is only
	// meaningful for FrequencyCustom; a daily frequency carries no day set.
	Frequency struct {
		Type FrequencyType  `json:"type"`
		Days []time.Weekday `json:"days,omitempty"`
	}

	// Completion records whether a habit was completed on a single day.
	// Date is a day-granularity key (see DateKey); there is at most one
	// Completion per (habit, date) pair.
	Completion struct {
		Date      string `json:"date"`
		Completed bool   `json:"completed"`
	}

	Habit struct {
		ID          string       `json:"id"`
		Title       string       `json:"title"`
		CategoryID  string       `json:"categoryId"`
		Frequency   Frequency    `json:"frequency"`
		Completions []Completion `json:"completions"`
	}

	Category struct {
		ID     string  `json:"id"`
		Name   string  `json:"name"`
		Color  string  `json:"color"`
		Habits []Habit `json:"habits"`
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidFrequency  = errors.New("invalid frequency type")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrUnauthenticated   = errors.New("not authenticated")

	ErrEmptyTitle        = errors.New("empty habit title")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrInvalidColor      = errors.New("invalid category color")
	ErrInvalidWeekday    = errors.New("invalid weekday")
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Daily returns a frequency that is due every day.
func Daily() Frequency {
	return Frequency{Type: FrequencyDaily}
}

// OnDays returns a custom frequency due on the given weekdays.
// Duplicates are collapsed; order is preserved.
func OnDays(days ...time.Weekday) Frequency {
	seen := map[time.Weekday]struct{}{}
	uniq := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		uniq = append(uniq, d)
	}
	return Frequency{Type: FrequencyCustom, Days: uniq}
}

// Validate enforces the editing-boundary rules: a custom frequency needs
// at least one valid weekday and a daily frequency carries no day set.
// The data model itself tolerates an empty custom day set (it means
// "never due"), so Validate is called by handlers and mutation
// operations, not by readers.
func (f Frequency) Validate() error {
	switch f.Type {
	case FrequencyDaily:
		if len(f.Days) > 0 {
			return errors.New("daily frequency must not carry specific days")
		}
		return nil
	case FrequencyCustom:
		if len(f.Days) == 0 {
			return errors.New("custom frequency needs at least one day")
		}
		for _, d := range f.Days {
			if d < time.Sunday || d > time.Saturday {
				return ErrInvalidWeekday
			}
		}
		return nil
	default:
		return ErrInvalidFrequency
	}
}

// Contains reports whether the day set includes the given weekday.
func (f Frequency) Contains(day time.Weekday) bool {
	for _, d := range f.Days {
		if d == day {
			return true
		}
	}
	return false
}

func (h Habit) Validate() error {
	if len(strings.TrimSpace(h.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(h.Title) > 200 {
		return errors.New("habit title too long (max 200 characters)")
	}
	if strings.TrimSpace(h.CategoryID) == "" {
		return errors.New("empty category id")
	}
	return h.Frequency.Validate()
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	if !colorPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

// CompletionFor returns the completion record for the given day key, if any.
func (h Habit) CompletionFor(dateKey string) (Completion, bool) {
	for _, c := range h.Completions {
		if c.Date == dateKey {
			return c, true
		}
	}
	return Completion{}, false
}
