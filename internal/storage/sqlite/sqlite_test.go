package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/budgetshare/internal/storage"
	"github.com/mmynk/budgetshare/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return newTestStore(t)
	})
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("expected database file to exist: %v", err)
	}
}

func TestNew_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	budget := storagetest.NewBudget("Flat", "100", "alice", "bob")
	if err := store.CreateBudget(context.Background(), budget); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}
	store.Close()

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetBudget(context.Background(), budget.ID); err != nil {
		t.Errorf("GetBudget after reopen failed: %v", err)
	}
}

func TestLedgerRowsAreAppendOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	budget := storagetest.NewBudget("Flat", "100", "alice", "bob")
	if err := store.CreateBudget(ctx, budget); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}

	if _, err := store.db.ExecContext(ctx,
		`INSERT INTO settlements (id, budget_id, from_user_id, to_user_id, amount, created_at, created_by)
		 VALUES ('s1', ?, 'bob', 'alice', '5', 1, 'bob')`, budget.ID); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if _, err := store.db.ExecContext(ctx, `UPDATE settlements SET amount = '6' WHERE id = 's1'`); err == nil {
		t.Error("expected update of a settlement to be rejected")
	}
	if _, err := store.db.ExecContext(ctx, `DELETE FROM settlements WHERE id = 's1'`); err == nil {
		t.Error("expected delete of a settlement to be rejected")
	}
}
