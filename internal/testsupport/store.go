package testsupport

import (
	"testing"

	"bundlepull/internal/config"
	"bundlepull/internal/ledger"
)

// MustOpenLedger opens the run ledger for cfg and closes it when the test ends.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
