package core

import (
	"errors"
	"testing"
	"time"
)

func TestFrequencyValidate(t *testing.T) {
	cases := []struct {
		name string
		f    Frequency
		ok   bool
	}{
		{"daily", Daily(), true},
		{"custom with days", OnDays(time.Monday, time.Wednesday, time.Friday), true},
		{"custom single day", OnDays(time.Sunday), true},
		{"custom without days", Frequency{Type: FrequencyCustom}, false},
		{"daily with stray days", Frequency{Type: FrequencyDaily, Days: []time.Weekday{time.Monday}}, false},
		{"custom with bogus weekday", Frequency{Type: FrequencyCustom, Days: []time.Weekday{9}}, false},
		{"unknown type", Frequency{Type: "biweekly"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.f.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if err := (Frequency{Type: "biweekly"}).Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("unknown type should yield ErrInvalidFrequency, got %v", err)
	}
}

func TestOnDaysDeduplicates(t *testing.T) {
	f := OnDays(time.Monday, time.Monday, time.Friday)
	if len(f.Days) != 2 {
		t.Fatalf("expected 2 unique days, got %d", len(f.Days))
	}
	if !f.Contains(time.Monday) || !f.Contains(time.Friday) || f.Contains(time.Tuesday) {
		t.Fatal("Contains mismatch after dedup")
	}
}

func TestHabitValidate(t *testing.T) {
	good := Habit{ID: "h1", Title: "Stretch", CategoryID: "health", Frequency: Daily()}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Habit{
		{ID: "h1", Title: "", CategoryID: "health", Frequency: Daily()},
		{ID: "h1", Title: "  ", CategoryID: "health", Frequency: Daily()},
		{ID: "h1", Title: "Stretch", CategoryID: "", Frequency: Daily()},
		{ID: "h1", Title: "Stretch", CategoryID: "health", Frequency: Frequency{Type: FrequencyCustom}},
	}
	for i, h := range bads {
		if err := h.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{ID: "health", Name: "Health", Color: "#4ade80"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Category{
		{ID: "c", Name: "", Color: "#4ade80"},
		{ID: "c", Name: "Health", Color: "green"},
		{ID: "c", Name: "Health", Color: "#4ade8"},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCompletionFor(t *testing.T) {
	h := Habit{Completions: []Completion{
		{Date: "2024-01-15", Completed: true},
		{Date: "2024-01-16", Completed: false},
	}}

	c, ok := h.CompletionFor("2024-01-15")
	if !ok || !c.Completed {
		t.Fatalf("expected completed record, got %v %v", c, ok)
	}
	c, ok = h.CompletionFor("2024-01-16")
	if !ok || c.Completed {
		t.Fatalf("expected incomplete record, got %v %v", c, ok)
	}
	if _, ok := h.CompletionFor("2024-01-17"); ok {
		t.Fatal("expected no record for untouched day")
	}
}
