package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"habits/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable local cache: one JSON snapshot of the
// category tree per user, plus a small key/value marker table.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSnapshot implements services.SnapshotStore
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, userID string, categories []core.Category) error {
	payload, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (user_id, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP`,
		userID, string(payload))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved", "user_id", userID, "bytes", len(payload))
	return nil
}

// LoadSnapshot implements services.SnapshotStore
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context, userID string) ([]core.Category, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var categories []core.Category
	if err := json.Unmarshal([]byte(payload), &categories); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return categories, nil
}

// GetMarker implements services.SnapshotStore
func (r *SQLiteRepository) GetMarker(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM markers WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get marker %s: %w", key, err)
	}
	return value, nil
}

// SetMarker implements services.SnapshotStore
func (r *SQLiteRepository) SetMarker(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO markers (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("set marker %s: %w", key, err)
	}
	return nil
}
