package core

import (
	"fmt"
	"time"
)

// CompletionRecord is a completion joined with its habit and category
// metadata, as returned by the remote range query. It feeds the export
// and summary operations.
type CompletionRecord struct {
	Date          string `json:"date"`
	Completed     bool   `json:"completed"`
	HabitID       string `json:"habitId"`
	HabitTitle    string `json:"habitTitle"`
	CategoryID    string `json:"categoryId"`
	CategoryName  string `json:"categoryName"`
	CategoryColor string `json:"categoryColor"`
}

// CategoryStats is one entry of a summary's category breakdown.
type CategoryStats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Rate      float64 `json:"rate"`
}

// Summary is a period-bounded completion report.
type Summary struct {
	Period            string                   `json:"period"`
	TotalHabits       int                      `json:"totalHabits"`
	TotalCompletions  int                      `json:"totalCompletions"`
	CompletionRate    float64                  `json:"completionRate"`
	CategoryBreakdown map[string]CategoryStats `json:"categoryBreakdown"`
}

// QuarterRange returns the inclusive first and last day of the given
// quarter (1-4).
func QuarterRange(year, quarter int) (time.Time, time.Time, error) {
	if quarter < 1 || quarter > 4 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid quarter: %d", quarter)
	}
	startMonth := time.Month((quarter-1)*3 + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)
	return start, end, nil
}

// QuarterlySummary computes completion statistics over the records that
// fall inside the given quarter.
//
// Habits with no completion record in range do not count toward
// TotalHabits. The breakdown is grouped by category name, so two
// categories sharing a name merge; both behaviors are deliberate (they
// match what existing data consumers expect).
func QuarterlySummary(records []CompletionRecord, year, quarter int) (Summary, error) {
	start, end, err := QuarterRange(year, quarter)
	if err != nil {
		return Summary{}, err
	}
	startKey := DateKey(start)
	endKey := DateKey(end)

	summary := Summary{
		Period:            fmt.Sprintf("Q%d %d", quarter, year),
		CategoryBreakdown: make(map[string]CategoryStats),
	}

	habitIDs := map[string]struct{}{}
	total := 0
	for _, rec := range records {
		// Lexicographic comparison works because keys are YYYY-MM-DD.
		if rec.Date < startKey || rec.Date > endKey {
			continue
		}
		total++
		habitIDs[rec.HabitID] = struct{}{}
		if rec.Completed {
			summary.TotalCompletions++
		}
		if rec.CategoryName != "" {
			stats := summary.CategoryBreakdown[rec.CategoryName]
			stats.Total++
			if rec.Completed {
				stats.Completed++
			}
			summary.CategoryBreakdown[rec.CategoryName] = stats
		}
	}

	summary.TotalHabits = len(habitIDs)
	if total > 0 {
		summary.CompletionRate = float64(summary.TotalCompletions) / float64(total) * 100
	}
	for name, stats := range summary.CategoryBreakdown {
		if stats.Total > 0 {
			stats.Rate = float64(stats.Completed) / float64(stats.Total) * 100
		}
		summary.CategoryBreakdown[name] = stats
	}

	return summary, nil
}
