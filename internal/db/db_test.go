package db_test

import (
	"context"
	"testing"

	"github.com/barterhub/timebank/internal/db"
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	for _, table := range []string{"users", "services", "trades", "messages", "outbox", "outbox_dead"} {
		var name string
		row := d.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table)
		if err := row.Scan(&name); err != nil {
			t.Fatalf("table %s missing after migrate: %v", table, err)
		}
	}

	// rerun is a no-op
	if err := db.Migrate(ctx, d); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var applied int
	row := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`)
	if err := row.Scan(&applied); err != nil {
		t.Fatalf("schema_migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied migration got %d", applied)
	}
}

func TestNewBadPath(t *testing.T) {
	if _, err := db.New(context.Background(), "/nonexistent-dir/tb.db"); err == nil {
		t.Fatalf("expected error for unwritable path")
	}
}
