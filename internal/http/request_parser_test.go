package http

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"habits/internal/core"
)

var parserNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestParseDayParam(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{name: "valid date", date: "2024-01-03", want: "2024-01-03"},
		{name: "missing falls back to now", date: "", want: "2024-05-10"},
		{name: "malformed falls back to now", date: "Jan 3rd", want: "2024-05-10"},
		{name: "wrong layout falls back to now", date: "03/01/2024", want: "2024-05-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			if tt.date != "" {
				values.Set("date", tt.date)
			}
			got := ParseDayParam(values, parserNow)
			if core.DateKey(got) != tt.want {
				t.Errorf("ParseDayParam(%q) = %s, want %s", tt.date, core.DateKey(got), tt.want)
			}
		})
	}
}

func TestParseQuarterParams(t *testing.T) {
	tests := []struct {
		name        string
		values      url.Values
		wantYear    int
		wantQuarter int
	}{
		{name: "defaults to current quarter", values: url.Values{}, wantYear: 2024, wantQuarter: 2},
		{name: "explicit values", values: url.Values{"year": {"2023"}, "quarter": {"4"}}, wantYear: 2023, wantQuarter: 4},
		{name: "bad year keeps default", values: url.Values{"year": {"abc"}, "quarter": {"1"}}, wantYear: 2024, wantQuarter: 1},
		{name: "bad quarter keeps default", values: url.Values{"quarter": {"x"}}, wantYear: 2024, wantQuarter: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuarterParams(tt.values, parserNow)
			if got.Year != tt.wantYear || got.Quarter != tt.wantQuarter {
				t.Errorf("ParseQuarterParams() = %+v, want year=%d quarter=%d", got, tt.wantYear, tt.wantQuarter)
			}
		})
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name     string
		values   url.Values
		wantType core.FrequencyType
		wantDays int
		wantErr  bool
	}{
		{name: "empty defaults to daily", values: url.Values{}, wantType: core.FrequencyDaily},
		{name: "explicit daily", values: url.Values{"frequency": {"daily"}}, wantType: core.FrequencyDaily},
		{name: "custom with days", values: url.Values{"frequency": {"custom"}, "days": {"1", "3", "5"}}, wantType: core.FrequencyCustom, wantDays: 3},
		{name: "custom deduplicates", values: url.Values{"frequency": {"custom"}, "days": {"1", "1", "3"}}, wantType: core.FrequencyCustom, wantDays: 2},
		{name: "custom without days", values: url.Values{"frequency": {"custom"}}, wantErr: true},
		{name: "day out of range", values: url.Values{"frequency": {"custom"}, "days": {"7"}}, wantErr: true},
		{name: "day not a number", values: url.Values{"frequency": {"custom"}, "days": {"mon"}}, wantErr: true},
		{name: "unknown type", values: url.Values{"frequency": {"weekly"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrequency(tt.values)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFrequency() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrequency() error = %v", err)
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", got.Type, tt.wantType)
			}
			if len(got.Days) != tt.wantDays {
				t.Errorf("len(Days) = %d, want %d", len(got.Days), tt.wantDays)
			}
		})
	}
}

func TestParseWindowDays(t *testing.T) {
	tests := []struct {
		name   string
		window string
		want   int
	}{
		{name: "missing uses default", window: "", want: 364},
		{name: "valid override", window: "30", want: 30},
		{name: "zero rejected", window: "0", want: 364},
		{name: "too large rejected", window: "4000", want: 364},
		{name: "not a number rejected", window: "month", want: 364},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			if tt.window != "" {
				values.Set("window", tt.window)
			}
			if got := ParseWindowDays(values, 364); got != tt.want {
				t.Errorf("ParseWindowDays(%q) = %d, want %d", tt.window, got, tt.want)
			}
		})
	}
}

func TestRequireMethod(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/habits", nil)

	if resp := RequireMethod(req, http.MethodGet); resp != nil {
		t.Error("matching method should pass")
	}
	if resp := RequirePOST(req); resp == nil {
		t.Error("GET should fail RequirePOST")
	}
	if resp := RequireDeleteOrPOST(req); resp == nil {
		t.Error("GET should fail RequireDeleteOrPOST")
	}

	del, _ := http.NewRequest(http.MethodDelete, "/habits/delete", nil)
	if resp := RequireDeleteOrPOST(del); resp != nil {
		t.Error("DELETE should pass RequireDeleteOrPOST")
	}
}
