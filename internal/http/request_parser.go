// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: date keys, weekday sets, quarter selectors and the method/form
// guard helpers shared by all handlers.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"habits/internal/core"
)

// QuarterParams holds parsed year/quarter values from request parameters.
type QuarterParams struct {
	Year    int
	Quarter int
}

// ParseDayParam extracts a calendar day from the "date" parameter,
// falling back to now for a missing or malformed value.
func ParseDayParam(values url.Values, now time.Time) time.Time {
	v := strings.TrimSpace(values.Get("date"))
	if v == "" {
		return now
	}
	day, err := core.ParseDateKey(v)
	if err != nil {
		return now
	}
	return day
}

// ParseQuarterParams extracts year and quarter, defaulting to the
// quarter containing now.
func ParseQuarterParams(values url.Values, now time.Time) QuarterParams {
	params := QuarterParams{
		Year:    now.Year(),
		Quarter: (int(now.Month())-1)/3 + 1,
	}

	if v := strings.TrimSpace(values.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(values.Get("quarter")); v != "" {
		if q, err := strconv.Atoi(v); err == nil {
			params.Quarter = q
		}
	}

	return params
}

// ParseFrequency builds a frequency from the "frequency" selector and
// the repeated "days" values ("0".."6", Sunday first).
func ParseFrequency(values url.Values) (core.Frequency, error) {
	freqType := strings.TrimSpace(values.Get("frequency"))
	if freqType == "" || freqType == string(core.FrequencyDaily) {
		return core.Daily(), nil
	}
	if freqType != string(core.FrequencyCustom) {
		return core.Frequency{}, core.ErrInvalidFrequency
	}

	var days []time.Weekday
	for _, v := range values["days"] {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 || n > 6 {
			return core.Frequency{}, core.ErrInvalidWeekday
		}
		days = append(days, time.Weekday(n))
	}
	f := core.OnDays(days...)
	if err := f.Validate(); err != nil {
		return core.Frequency{}, err
	}
	return f, nil
}

// ParseWindowDays extracts the heatmap window size, clamped to
// [1, 3650] with the given default.
func ParseWindowDays(values url.Values, def int) int {
	v := strings.TrimSpace(values.Get("window"))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 3650 {
		return def
	}
	return n
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
