package testsupport

import (
	"testing"

	"daybrief/internal/bundles"
	"daybrief/internal/config"
	"daybrief/internal/memory"
)

// MustOpenMemory opens a memory.Store for tests and registers cleanup.
func MustOpenMemory(t testing.TB, cfg *config.Config) *memory.Store {
	t.Helper()

	store, err := memory.Open(cfg)
	if err != nil {
		t.Fatalf("memory.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenBundles opens a bundles.Store for tests and registers cleanup.
func MustOpenBundles(t testing.TB, cfg *config.Config) *bundles.Store {
	t.Helper()

	store, err := bundles.Open(cfg)
	if err != nil {
		t.Fatalf("bundles.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
