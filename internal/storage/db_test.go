package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

var errBoom = errors.New("boom")

func TestOpen_NilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestOpenMemory_AppliesSchema(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, table := range []string{"wishlists", "wishlist_items", "definitions"} {
		var name string
		err := db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestOpen_FileWithMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wishlists.db")
	cfg := DefaultConfig(path)
	cfg.AutoMigrate = true

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	var n int
	if err := db.Conn().QueryRow(`SELECT COUNT(*) FROM wishlists`).Scan(&n); err != nil {
		t.Errorf("wishlists table not created: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mgr, err := NewMigrationManager(path)
	if err != nil {
		t.Fatalf("NewMigrationManager() error = %v", err)
	}
	defer func() { _ = mgr.Close() }()

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Version() = %d, dirty=%v; want 1, false", version, dirty)
	}
	if err := mgr.Up(); err != nil {
		t.Errorf("Up() on current schema error = %v", err)
	}
	if err := mgr.Down(); err != nil {
		t.Errorf("Down() error = %v", err)
	}
	version, _, err = mgr.Version()
	if err != nil || version != 0 {
		t.Errorf("Version() after Down = %d, %v", version, err)
	}
}

func TestWithTransaction(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	insert := `INSERT INTO definitions (hash, kind, name) VALUES (?, 'perk', 'x')`

	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(insert, 1); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithTransaction() error = %v, want errBoom", err)
	}

	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(insert, 2)
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction() error = %v", err)
	}

	var n int
	if err := db.Conn().QueryRow(`SELECT COUNT(*) FROM definitions`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1 (rolled back insert must not persist)", n)
	}
}
