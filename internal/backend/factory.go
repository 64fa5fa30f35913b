package backend

import (
	"context"
	"fmt"
	"log/slog"

	"habits/internal/remote/google"
	"habits/internal/remote/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		cli, err := google.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets backend")
		return &Result{Store: cli, Cleanup: noopCleanup}, nil
	case MemoryBackend:
		f.logger.Info("Initialized in-memory backend")
		return &Result{Store: memory.New(), Cleanup: noopCleanup}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func noopCleanup() error { return nil }
