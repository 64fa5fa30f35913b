package http

import (
	"errors"
	"net/http"
	"strings"

	"habits/internal/core"
	"habits/internal/log"
	"habits/internal/services"
)

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	categoryID := strings.TrimSpace(r.FormValue("category_id"))
	title := sanitizeInput(strings.TrimSpace(r.FormValue("title")))
	if categoryID == "" {
		UnprocessableEntityError("Category is required").Write(w)
		return
	}

	freq, err := ParseFrequency(r.Form)
	if err != nil {
		UnprocessableEntityError("Pick at least one weekday or choose daily").Write(w)
		return
	}

	habit, err := s.service.AddHabit(r.Context(), s.sess, categoryID, services.HabitData{
		Title:     title,
		Frequency: freq,
	})
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyTitle):
			UnprocessableEntityError("Habit title cannot be empty").Write(w)
		case errors.Is(err, core.ErrInvalidFrequency):
			UnprocessableEntityError("Pick at least one weekday or choose daily").Write(w)
		case errors.Is(err, core.ErrNotFound):
			NotFoundError("Unknown category").Write(w)
		default:
			s.logger.ErrorContext(r.Context(), "Failed to create habit", log.FieldError, err, log.FieldCategoryID, categoryID)
			InternalServerError("Failed to create habit").Write(w)
		}
		return
	}

	s.invalidateReadCaches()

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerHabitCreated(habit.ID, categoryID).
		TriggerSuccessNotification("Habit created").
		Write(w)
}

func (s *Server) handleToggleCompletion(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	habitID := strings.TrimSpace(r.FormValue("habit_id"))
	if habitID == "" {
		UnprocessableEntityError("Habit id is required").Write(w)
		return
	}
	day := ParseDayParam(r.Form, s.now())

	result, err := s.service.ToggleCompletion(r.Context(), s.sess, habitID, day)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Habit not found").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to toggle completion", log.FieldError, err, log.FieldHabitID, habitID)
		InternalServerError("Failed to toggle completion").Write(w)
		return
	}

	s.invalidateReadCaches()

	resp := NewHTMXResponse().
		TriggerCompletionToggled(habitID, core.DateKey(day), result.Completed)
	if result.WeeklyCompletionReached {
		resp.TriggerWeekComplete(habitID)
	}
	resp.Write(w)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	habitID := strings.TrimSpace(r.FormValue("habit_id"))
	if habitID == "" {
		habitID = strings.TrimSpace(r.URL.Query().Get("habit_id"))
	}
	if habitID == "" {
		UnprocessableEntityError("Habit id is required").Write(w)
		return
	}

	if err := s.service.DeleteHabit(r.Context(), s.sess, habitID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError("Habit not found").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to delete habit", log.FieldError, err, log.FieldHabitID, habitID)
		InternalServerError("Failed to delete habit").Write(w)
		return
	}

	s.invalidateReadCaches()

	NewHTMXResponse().
		TriggerHabitDeleted(habitID).
		TriggerSuccessNotification("Habit deleted").
		Write(w)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost, http.MethodPut); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	habitID := strings.TrimSpace(r.FormValue("habit_id"))
	if habitID == "" {
		UnprocessableEntityError("Habit id is required").Write(w)
		return
	}

	var update services.HabitUpdate
	if r.Form.Has("title") {
		title := sanitizeInput(strings.TrimSpace(r.FormValue("title")))
		update.Title = &title
	}
	if r.Form.Has("frequency") {
		freq, err := ParseFrequency(r.Form)
		if err != nil {
			UnprocessableEntityError("Pick at least one weekday or choose daily").Write(w)
			return
		}
		update.Frequency = &freq
	}

	if _, err := s.service.UpdateHabit(r.Context(), s.sess, habitID, update); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			NotFoundError("Habit not found").Write(w)
		case errors.Is(err, core.ErrEmptyTitle):
			UnprocessableEntityError("Habit title cannot be empty").Write(w)
		case errors.Is(err, core.ErrInvalidFrequency):
			UnprocessableEntityError("Pick at least one weekday or choose daily").Write(w)
		default:
			s.logger.ErrorContext(r.Context(), "Failed to update habit", log.FieldError, err, log.FieldHabitID, habitID)
			InternalServerError("Failed to update habit").Write(w)
		}
		return
	}

	s.invalidateReadCaches()

	NewHTMXResponse().
		TriggerHabitUpdated(habitID).
		TriggerSuccessNotification("Habit updated").
		Write(w)
}
