package backend

import (
	"context"
	"testing"
)

func TestCreateStoreMemory(t *testing.T) {
	factory := NewFactory(nil)

	result, err := factory.CreateStore(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateStore() error = %v", err)
	}
	if result.Store == nil {
		t.Fatal("CreateStore() returned nil store")
	}
	if result.Cleanup == nil {
		t.Fatal("CreateStore() returned nil cleanup func")
	}
	// main defers this call unconditionally; it must be safe.
	if err := result.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}

func TestCreateStoreInvalidType(t *testing.T) {
	factory := NewFactory(nil)

	if _, err := factory.CreateStore(context.Background(), Config{Type: "postgres"}); err == nil {
		t.Error("CreateStore() with unknown type should fail")
	}
}

func TestCreateStoreSheetsRequiresSpreadsheet(t *testing.T) {
	factory := NewFactory(nil)

	if _, err := factory.CreateStore(context.Background(), Config{Type: SheetsBackend}); err == nil {
		t.Error("CreateStore() without a spreadsheet id should fail")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "sheets with spreadsheet", config: Config{Type: SheetsBackend, HabitsSpreadsheetID: "sheet-1"}},
		{name: "sheets without spreadsheet", config: Config{Type: SheetsBackend}, wantErr: true},
		{name: "unknown type", config: Config{Type: "csv"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
