// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for habit schedule checking.
// Each frequency type (daily, custom weekday set) has its own strategy
// that encapsulates the logic for determining if a habit is due on a day.

package services

import (
	"fmt"
	"time"

	"habits/internal/core"
)

// ScheduleChecker is the strategy interface for deciding whether a habit
// is due on a given calendar day.
type ScheduleChecker interface {
	// IsScheduled returns true if a habit with the given frequency is due
	// on the given day.
	IsScheduled(freq core.Frequency, day time.Time) bool
}

// DailyChecker implements ScheduleChecker for daily habits.
type DailyChecker struct{}

// IsScheduled always returns true: a daily habit is due every day.
func (DailyChecker) IsScheduled(_ core.Frequency, _ time.Time) bool {
	return true
}

// CustomDaysChecker implements ScheduleChecker for habits bound to
// specific weekdays.
type CustomDaysChecker struct{}

// IsScheduled returns true iff the day's weekday is in the frequency's
// day set. An empty set means "never due".
func (CustomDaysChecker) IsScheduled(freq core.Frequency, day time.Time) bool {
	return freq.Contains(day.Weekday())
}

// scheduleStrategies maps frequency types to their corresponding checkers.
var scheduleStrategies = map[core.FrequencyType]ScheduleChecker{
	core.FrequencyDaily:  DailyChecker{},
	core.FrequencyCustom: CustomDaysChecker{},
}

// GetScheduleChecker returns the checker for a frequency type. An
// unrecognized type is an error, never a silent "never due": scheduling
// correctness must not degrade without signaling.
func GetScheduleChecker(t core.FrequencyType) (ScheduleChecker, error) {
	checker, ok := scheduleStrategies[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidFrequency, t)
	}
	return checker, nil
}

// RegisterScheduleChecker allows registering checkers for new frequency
// types without modifying the dispatch.
func RegisterScheduleChecker(t core.FrequencyType, checker ScheduleChecker) {
	scheduleStrategies[t] = checker
}

// IsScheduled reports whether the habit is due on the given day.
func IsScheduled(h core.Habit, day time.Time) (bool, error) {
	checker, err := GetScheduleChecker(h.Frequency.Type)
	if err != nil {
		return false, err
	}
	return checker.IsScheduled(h.Frequency, day), nil
}

// IsCompleted reports whether the habit has a completed record for the
// given day. A missing record counts as not completed, not as an error.
func IsCompleted(h core.Habit, day time.Time) bool {
	c, ok := h.CompletionFor(core.DateKey(day))
	return ok && c.Completed
}

// IsWeeklyComplete reports whether every day the habit is scheduled for
// within weekDates is completed. A habit with no scheduled day in the
// week is never "weekly complete".
func IsWeeklyComplete(h core.Habit, weekDates []time.Time) (bool, error) {
	scheduled := 0
	for _, day := range weekDates {
		due, err := IsScheduled(h, day)
		if err != nil {
			return false, err
		}
		if !due {
			continue
		}
		scheduled++
		if !IsCompleted(h, day) {
			return false, nil
		}
	}
	return scheduled > 0, nil
}
