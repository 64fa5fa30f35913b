package services

import (
	"errors"
	"testing"
	"time"

	"habits/internal/core"
)

func TestIsScheduled(t *testing.T) {
	monday := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	tests := []struct {
		name string
		freq core.Frequency
		day  time.Time
		want bool
	}{
		{"daily on monday", core.Daily(), monday, true},
		{"daily on tuesday", core.Daily(), tuesday, true},
		{"custom hit", core.OnDays(time.Monday, time.Friday), monday, true},
		{"custom miss", core.OnDays(time.Monday, time.Friday), tuesday, false},
		{"custom empty set never due", core.Frequency{Type: core.FrequencyCustom}, monday, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsScheduled(core.Habit{Frequency: tt.freq}, tt.day)
			if err != nil {
				t.Fatalf("IsScheduled() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsScheduled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsScheduledUnknownType(t *testing.T) {
	_, err := IsScheduled(core.Habit{Frequency: core.Frequency{Type: "lunar"}}, time.Now())
	if !errors.Is(err, core.ErrInvalidFrequency) {
		t.Errorf("IsScheduled() error = %v, want ErrInvalidFrequency", err)
	}
}

func TestGetScheduleChecker(t *testing.T) {
	if _, err := GetScheduleChecker(core.FrequencyDaily); err != nil {
		t.Errorf("GetScheduleChecker(daily) error = %v", err)
	}
	if _, err := GetScheduleChecker(core.FrequencyCustom); err != nil {
		t.Errorf("GetScheduleChecker(custom) error = %v", err)
	}
	if _, err := GetScheduleChecker("lunar"); err == nil {
		t.Error("GetScheduleChecker(lunar) expected error")
	}
}

func TestIsCompleted(t *testing.T) {
	day := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	h := core.Habit{Completions: []core.Completion{
		{Date: "2024-01-15", Completed: true},
		{Date: "2024-01-16", Completed: false},
	}}

	if !IsCompleted(h, day) {
		t.Error("expected completed on 2024-01-15")
	}
	if IsCompleted(h, day.AddDate(0, 0, 1)) {
		t.Error("un-completed record must not count")
	}
	if IsCompleted(h, day.AddDate(0, 0, 2)) {
		t.Error("missing record must not count")
	}
}

func TestIsWeeklyComplete(t *testing.T) {
	week := core.WeekDates(time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)) // Sun 14 .. Sat 20

	completions := func(dates ...string) []core.Completion {
		out := make([]core.Completion, 0, len(dates))
		for _, d := range dates {
			out = append(out, core.Completion{Date: d, Completed: true})
		}
		return out
	}

	tests := []struct {
		name  string
		habit core.Habit
		want  bool
	}{
		{
			"mon wed fri all done",
			core.Habit{
				Frequency:   core.OnDays(time.Monday, time.Wednesday, time.Friday),
				Completions: completions("2024-01-15", "2024-01-17", "2024-01-19"),
			},
			true,
		},
		{
			"mon wed fri one missing",
			core.Habit{
				Frequency:   core.OnDays(time.Monday, time.Wednesday, time.Friday),
				Completions: completions("2024-01-15", "2024-01-17"),
			},
			false,
		},
		{
			"daily all seven done",
			core.Habit{
				Frequency: core.Daily(),
				Completions: completions("2024-01-14", "2024-01-15", "2024-01-16",
					"2024-01-17", "2024-01-18", "2024-01-19", "2024-01-20"),
			},
			true,
		},
		{
			"daily six of seven",
			core.Habit{
				Frequency: core.Daily(),
				Completions: completions("2024-01-14", "2024-01-15", "2024-01-16",
					"2024-01-17", "2024-01-18", "2024-01-19"),
			},
			false,
		},
		{
			"no scheduled days never complete",
			core.Habit{
				Frequency:   core.Frequency{Type: core.FrequencyCustom},
				Completions: completions("2024-01-15"),
			},
			false,
		},
		{
			"un-completed record blocks",
			core.Habit{
				Frequency: core.OnDays(time.Monday),
				Completions: []core.Completion{
					{Date: "2024-01-15", Completed: false},
				},
			},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsWeeklyComplete(tt.habit, week)
			if err != nil {
				t.Fatalf("IsWeeklyComplete() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsWeeklyComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegisterScheduleChecker(t *testing.T) {
	type neverChecker struct{ ScheduleChecker }
	RegisterScheduleChecker("never", neverChecker{CustomDaysChecker{}})
	t.Cleanup(func() { delete(scheduleStrategies, "never") })

	if _, err := GetScheduleChecker("never"); err != nil {
		t.Errorf("registered checker not found: %v", err)
	}
}
