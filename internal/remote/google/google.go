package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"habits/internal/core"
	"habits/internal/remote"
)

// Client stores the habit tree across three sheets of one spreadsheet:
// Categories (user, id, name, color), Habits (user, id, category, title,
// frequency type, day list) and Completions (user, habit, date, flag).
type Client struct {
	svc              *gsheet.Service
	spreadsheetID    string
	categoriesSheet  string
	habitsSheet      string
	completionsSheet string
}

// Ensure interface conformance
var _ remote.Store = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: HABITS_SPREADSHEET_ID
// Optional sheet names: HABITS_CATEGORIES_SHEET_NAME (default "Categories"),
// HABITS_SHEET_NAME (default "Habits"),
// HABITS_COMPLETIONS_SHEET_NAME (default "Completions").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("HABITS_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing HABITS_SPREADSHEET_ID")
	}

	categories := strings.TrimSpace(os.Getenv("HABITS_CATEGORIES_SHEET_NAME"))
	if categories == "" {
		categories = "Categories"
	}
	habitsSheet := strings.TrimSpace(os.Getenv("HABITS_SHEET_NAME"))
	if habitsSheet == "" {
		habitsSheet = "Habits"
	}
	completions := strings.TrimSpace(os.Getenv("HABITS_COMPLETIONS_SHEET_NAME"))
	if completions == "" {
		completions = "Completions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:              svc,
		spreadsheetID:    spreadsheetID,
		categoriesSheet:  categories,
		habitsSheet:      habitsSheet,
		completionsSheet: completions,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// FetchCategories implements remote.CategoryFetcher. The three sheets
// are read concurrently, then joined into the nested tree.
func (c *Client) FetchCategories(ctx context.Context, userID string) ([]core.Category, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	var catRows, habitRows, completionRows [][]any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		catRows, err = c.readSheet(gctx, c.categoriesSheet, "A:D")
		return err
	})
	g.Go(func() (err error) {
		habitRows, err = c.readSheet(gctx, c.habitsSheet, "A:F")
		return err
	})
	g.Go(func() (err error) {
		completionRows, err = c.readSheet(gctx, c.completionsSheet, "A:D")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRemoteUnavailable, err)
	}

	var categories []core.Category
	catIndex := map[string]int{}
	for _, row := range catRows {
		cols := toStrings(row)
		if len(cols) < 4 || cols[0] != userID {
			continue
		}
		catIndex[cols[1]] = len(categories)
		categories = append(categories, core.Category{
			ID:    cols[1],
			Name:  cols[2],
			Color: cols[3],
		})
	}

	habitIndex := map[string][2]int{}
	for _, row := range habitRows {
		cols := toStrings(row)
		if len(cols) < 5 || cols[0] != userID {
			continue
		}
		ci, ok := catIndex[cols[2]]
		if !ok {
			slog.WarnContext(ctx, "Habit row references unknown category",
				"habit_id", cols[1], "category_id", cols[2])
			continue
		}
		h := core.Habit{
			ID:         cols[1],
			CategoryID: cols[2],
			Title:      cols[3],
			Frequency:  decodeFrequency(cols[4], safeGet(cols, 5)),
		}
		habitIndex[h.ID] = [2]int{ci, len(categories[ci].Habits)}
		categories[ci].Habits = append(categories[ci].Habits, h)
	}

	for _, row := range completionRows {
		cols := toStrings(row)
		if len(cols) < 4 || cols[0] != userID {
			continue
		}
		pos, ok := habitIndex[cols[1]]
		if !ok {
			continue
		}
		completed, _ := strconv.ParseBool(cols[3])
		h := &categories[pos[0]].Habits[pos[1]]
		h.Completions = append(h.Completions, core.Completion{
			Date:      cols[2],
			Completed: completed,
		})
	}

	return categories, nil
}

// CreateCategory implements remote.CategoryWriter
func (c *Client) CreateCategory(ctx context.Context, userID, name, color string) (string, error) {
	id := uuid.NewString()
	err := c.appendRow(ctx, c.categoriesSheet, []any{userID, id, name, color})
	if err != nil {
		return "", fmt.Errorf("append category row: %w", err)
	}
	return id, nil
}

// CreateHabit implements remote.HabitWriter
func (c *Client) CreateHabit(ctx context.Context, userID string, h core.Habit) (string, error) {
	freqType, days := encodeFrequency(h.Frequency)
	err := c.appendRow(ctx, c.habitsSheet, []any{userID, h.ID, h.CategoryID, h.Title, freqType, days})
	if err != nil {
		return "", fmt.Errorf("append habit row: %w", err)
	}
	return h.ID, nil
}

// UpdateHabit implements remote.HabitUpdater
func (c *Client) UpdateHabit(ctx context.Context, userID string, h core.Habit) error {
	row, err := c.findHabitRow(ctx, userID, h.ID)
	if err != nil {
		return err
	}
	freqType, days := encodeFrequency(h.Frequency)
	rng := fmt.Sprintf("%s!D%d:F%d", c.habitsSheet, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{{h.Title, freqType, days}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update habit row %d: %w", row, err)
	}
	return nil
}

// DeleteHabit implements remote.HabitDeleter. The habit row and all of
// its completion rows are cleared; cleared rows are skipped on read.
func (c *Client) DeleteHabit(ctx context.Context, userID, habitID string) error {
	row, err := c.findHabitRow(ctx, userID, habitID)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d:F%d", c.habitsSheet, row, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear habit row %d: %w", row, err)
	}

	rows, err := c.readSheet(ctx, c.completionsSheet, "A:D")
	if err != nil {
		return fmt.Errorf("read completions: %w", err)
	}
	for i, r := range rows {
		cols := toStrings(r)
		if len(cols) < 2 || cols[0] != userID || cols[1] != habitID {
			continue
		}
		rng := fmt.Sprintf("%s!A%d:D%d", c.completionsSheet, i+1, i+1)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear completion row %d: %w", i+1, err)
		}
	}
	return nil
}

// UpsertCompletion implements remote.CompletionUpserter
func (c *Client) UpsertCompletion(ctx context.Context, userID, habitID, dateKey string, completed bool) error {
	rows, err := c.readSheet(ctx, c.completionsSheet, "A:D")
	if err != nil {
		return fmt.Errorf("read completions: %w", err)
	}
	for i, r := range rows {
		cols := toStrings(r)
		if len(cols) < 3 || cols[0] != userID || cols[1] != habitID || cols[2] != dateKey {
			continue
		}
		rng := fmt.Sprintf("%s!D%d", c.completionsSheet, i+1)
		vr := &gsheet.ValueRange{Values: [][]any{{strconv.FormatBool(completed)}}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update completion row %d: %w", i+1, err)
		}
		return nil
	}
	return c.appendRow(ctx, c.completionsSheet, []any{userID, habitID, dateKey, strconv.FormatBool(completed)})
}

// DeleteCompletionsInRange implements remote.CompletionDeleter
func (c *Client) DeleteCompletionsInRange(ctx context.Context, userID, startKey, endKey string) error {
	rows, err := c.readSheet(ctx, c.completionsSheet, "A:D")
	if err != nil {
		return fmt.Errorf("read completions: %w", err)
	}
	for i, r := range rows {
		cols := toStrings(r)
		if len(cols) < 3 || cols[0] != userID {
			continue
		}
		if cols[2] < startKey || cols[2] > endKey {
			continue
		}
		rng := fmt.Sprintf("%s!A%d:D%d", c.completionsSheet, i+1, i+1)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear completion row %d: %w", i+1, err)
		}
	}
	return nil
}

// QueryCompletions implements remote.CompletionQuerier
func (c *Client) QueryCompletions(ctx context.Context, userID, startKey, endKey string) ([]core.CompletionRecord, error) {
	categories, err := c.FetchCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []core.CompletionRecord
	for _, cat := range categories {
		for _, h := range cat.Habits {
			for _, comp := range h.Completions {
				if startKey != "" && comp.Date < startKey {
					continue
				}
				if endKey != "" && comp.Date > endKey {
					continue
				}
				out = append(out, core.CompletionRecord{
					Date:          comp.Date,
					Completed:     comp.Completed,
					HabitID:       h.ID,
					HabitTitle:    h.Title,
					CategoryID:    cat.ID,
					CategoryName:  cat.Name,
					CategoryColor: cat.Color,
				})
			}
		}
	}
	return out, nil
}

func (c *Client) readSheet(ctx context.Context, sheetName, cols string) ([][]any, error) {
	rng := fmt.Sprintf("%s!%s", sheetName, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, sheetName string, row []any) error {
	rng := fmt.Sprintf("%s!A:A", sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheetName, err)
	}
	return nil
}

// findHabitRow returns the 1-based row of the habit in the habits sheet.
func (c *Client) findHabitRow(ctx context.Context, userID, habitID string) (int, error) {
	rows, err := c.readSheet(ctx, c.habitsSheet, "A:B")
	if err != nil {
		return 0, fmt.Errorf("read habits: %w", err)
	}
	for i, r := range rows {
		cols := toStrings(r)
		if len(cols) >= 2 && cols[0] == userID && cols[1] == habitID {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("habit %s: %w", habitID, core.ErrNotFound)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// encodeFrequency flattens a frequency into the sheet's two columns:
// the type string and a comma-separated weekday number list.
func encodeFrequency(f core.Frequency) (string, string) {
	if f.Type != core.FrequencyCustom {
		return string(f.Type), ""
	}
	parts := make([]string, len(f.Days))
	for i, d := range f.Days {
		parts[i] = strconv.Itoa(int(d))
	}
	return string(f.Type), strings.Join(parts, ",")
}

func decodeFrequency(freqType, days string) core.Frequency {
	if freqType != string(core.FrequencyCustom) {
		return core.Daily()
	}
	f := core.Frequency{Type: core.FrequencyCustom}
	for _, part := range strings.Split(days, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			continue
		}
		f.Days = append(f.Days, time.Weekday(n))
	}
	return f
}
