package backend

import (
	"context"

	"habits/internal/remote"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the remote store instance and optional cleanup function
type Result struct {
	Store   remote.Store
	Cleanup CleanupFunc
}

// Factory creates remote stores based on configuration
type Factory interface {
	// CreateStore creates a remote store based on the provided config
	CreateStore(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for store creation
type Config struct {
	// Backend type
	Type BackendType

	// Google Sheets specific
	HabitsSpreadsheetID string
}

// BackendType represents the type of remote store backing the service
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
