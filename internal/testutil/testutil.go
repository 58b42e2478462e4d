// Package testutil provides shared test helpers for setting up stores and
// export directories.
package testutil

import (
	"os"
	"testing"

	"github.com/snapnote/snapnote/internal/export"
	"github.com/snapnote/snapnote/internal/store"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "snapnote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TestExporter creates an exporter rooted at a temporary directory.
func TestExporter(t *testing.T) *export.Exporter {
	t.Helper()
	exp, err := export.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return exp
}
