package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"habits/internal/core"
	"habits/internal/log"
	"habits/internal/services"
)

type indexData struct {
	Categories []core.Category
	Days       []weekDay
	Today      string
}

type weekDay struct {
	Date      string
	Label     string
	Total     int
	Completed int
	IsToday   bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	data := indexData{
		Categories: s.service.Categories(),
		Days:       s.buildWeekDays(),
		Today:      core.DateKey(s.now()),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to render index", log.FieldError, err)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	window := ParseWindowDays(r.URL.Query(), s.windowDays)
	categoryID := strings.TrimSpace(r.URL.Query().Get("category_id"))

	days, err := s.getCalendar(r.Context(), window, categoryID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to build heatmap", log.FieldError, err, "window", window)
		InternalServerError("Failed to build heatmap").Write(w)
		return
	}

	s.renderPartial(w, r, "heatmap.html", struct {
		Days       []services.DayAggregate
		CategoryID string
	}{Days: days, CategoryID: categoryID})
}

func (s *Server) handleWeeklyTracker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	s.renderPartial(w, r, "weekly_tracker.html", struct {
		Days  []weekDay
		Today string
	}{Days: s.buildWeekDays(), Today: core.DateKey(s.now())})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	params := ParseQuarterParams(r.URL.Query(), s.now())
	summary, err := s.getSummary(r.Context(), params.Year, params.Quarter)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUnauthenticated):
			UnauthorizedError("Sign in to view quarterly summaries").Write(w)
		case errors.Is(err, core.ErrRemoteUnavailable):
			ErrorResponse(http.StatusServiceUnavailable, "Summary data is temporarily unavailable").Write(w)
		default:
			s.logger.ErrorContext(r.Context(), "Failed to build summary",
				log.FieldError, err, log.FieldYear, params.Year, log.FieldQuarter, params.Quarter)
			InternalServerError("Failed to build summary").Write(w)
		}
		return
	}

	s.renderPartial(w, r, "summary.html", struct {
		Summary core.Summary
		Year    int
		Quarter int
	}{Summary: summary, Year: params.Year, Quarter: params.Quarter})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	now := s.now()
	startKey := strings.TrimSpace(r.URL.Query().Get("start"))
	endKey := strings.TrimSpace(r.URL.Query().Get("end"))
	if startKey == "" {
		startKey = core.DateKey(now.AddDate(0, 0, -s.windowDays))
	}
	if endKey == "" {
		endKey = core.DateKey(now)
	}

	records, err := s.service.Export(r.Context(), s.sess, startKey, endKey)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUnauthenticated):
			UnauthorizedError("Sign in to export completions").Write(w)
		case errors.Is(err, core.ErrRemoteUnavailable):
			ErrorResponse(http.StatusServiceUnavailable, "Export is temporarily unavailable").Write(w)
		default:
			s.logger.ErrorContext(r.Context(), "Failed to export completions", log.FieldError, err)
			InternalServerError("Failed to export completions").Write(w)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "habits_"+startKey+"_"+endKey+".json"))
	if err := json.NewEncoder(w).Encode(records); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to encode export", log.FieldError, err)
	}
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to render partial", log.FieldError, err, "template", name)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// buildWeekDays joins the current week's dates with their per-day
// totals for the tracker strip.
func (s *Server) buildWeekDays() []weekDay {
	dates := s.service.WeekDates()
	stats := services.WeekStats(s.service.Categories(), dates)
	today := core.DateKey(s.now())

	out := make([]weekDay, 0, len(dates))
	for i, d := range dates {
		wd := weekDay{
			Date:    stats[i].Date,
			Label:   d.Format("Mon"),
			IsToday: stats[i].Date == today,
		}
		wd.Total = stats[i].Total
		wd.Completed = stats[i].Completed
		out = append(out, wd)
	}
	return out
}
