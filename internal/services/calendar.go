package services

import (
	"time"

	"habits/internal/core"
)

// CategoryCompletion is one category's slice of a day's aggregate.
type CategoryCompletion struct {
	CategoryID string `json:"categoryId"`
	Color      string `json:"color"`
	Scheduled  int    `json:"scheduled"`
	Completed  int    `json:"completed"`
}

// DayAggregate is the dense per-day aggregation the heatmap renders.
type DayAggregate struct {
	Date       string               `json:"date"`
	Completed  int                  `json:"completed"`
	Percentage float64              `json:"percentage"`
	Categories []CategoryCompletion `json:"categories,omitempty"`
}

// DayStats is one day of the weekly tracker: how many habits exist and
// how many were completed, regardless of schedule.
type DayStats struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// BuildCalendar produces one DayAggregate per day in the window
// [now-windowDays, now], ascending and gapless: windowDays+1 entries,
// every calendar day exactly once even if nothing was scheduled.
//
// When selectedCategoryID is non-empty only that category's habits are
// counted. Categories with zero scheduled habits on a day are omitted
// from that day's breakdown so the heatmap never shows 0/0 entries.
func BuildCalendar(categories []core.Category, windowDays int, selectedCategoryID string, now time.Time) ([]DayAggregate, error) {
	days := core.DaysBetween(now.AddDate(0, 0, -windowDays), now)
	out := make([]DayAggregate, 0, len(days))

	for _, day := range days {
		agg := DayAggregate{Date: core.DateKey(day)}
		totalScheduled := 0

		for _, cat := range categories {
			if selectedCategoryID != "" && cat.ID != selectedCategoryID {
				continue
			}
			cc := CategoryCompletion{CategoryID: cat.ID, Color: cat.Color}
			for _, h := range cat.Habits {
				due, err := IsScheduled(h, day)
				if err != nil {
					return nil, err
				}
				if !due {
					continue
				}
				cc.Scheduled++
				if IsCompleted(h, day) {
					cc.Completed++
				}
			}
			if cc.Scheduled == 0 {
				continue
			}
			totalScheduled += cc.Scheduled
			agg.Completed += cc.Completed
			agg.Categories = append(agg.Categories, cc)
		}

		if totalScheduled > 0 {
			agg.Percentage = float64(agg.Completed) / float64(totalScheduled) * 100
		}
		out = append(out, agg)
	}

	return out, nil
}

// WeekStats computes per-day totals over all habits for the given week
// dates, feeding the weekly tracker strip. Every habit counts toward a
// day's total whether or not it is scheduled that day; this matches how
// the tracker has always presented progress.
func WeekStats(categories []core.Category, weekDates []time.Time) []DayStats {
	out := make([]DayStats, 0, len(weekDates))
	for _, day := range weekDates {
		stats := DayStats{Date: core.DateKey(day)}
		for _, cat := range categories {
			for _, h := range cat.Habits {
				stats.Total++
				if IsCompleted(h, day) {
					stats.Completed++
				}
			}
		}
		out = append(out, stats)
	}
	return out
}
