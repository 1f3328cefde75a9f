package store

import (
	"testing"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
)

func initMemoryTestDB(t *testing.T) Store {
	return NewMemoryStore(adapter.NewClock())
}

func cleanupMemoryTestDB(t *testing.T) {}

// TestMemoryStore runs all store tests against the in-memory implementation
func TestMemoryStore(t *testing.T) {
	RunStoreTests(t, initMemoryTestDB, cleanupMemoryTestDB)
}
