package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dukerupert/mealplan/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db DBTX, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestWithTxCommits(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := NewHouseholdStore(tx).Create(ctx, "Committed")
		return err
	})
	if err != nil {
		t.Fatalf("with tx: %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM households`); n != 1 {
		t.Errorf("households = %d, want 1", n)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := NewHouseholdStore(tx).Create(ctx, "Discarded"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM households`); n != 0 {
		t.Errorf("households = %d, want 0", n)
	}
}
