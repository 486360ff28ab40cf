package shared

import (
	"testing"
)

func TestRunMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='matches'`).Scan(&name)
	if err != nil {
		t.Fatalf("matches table was not created: %v", err)
	}

	var applied int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatalf("failed to read schema_migrations: %v", err)
	}
	if applied == 0 {
		t.Error("expected at least one recorded migration")
	}

	// Running again is a no-op.
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
	var appliedAgain int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&appliedAgain); err != nil {
		t.Fatalf("failed to read schema_migrations: %v", err)
	}
	if appliedAgain != applied {
		t.Errorf("expected %d migrations after rerun, got %d", applied, appliedAgain)
	}
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for _, m := range migrations {
		if m.Up == "" || m.Down == "" {
			t.Errorf("migration %d is incomplete", m.Version)
		}
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			t.Error("expected migrations sorted by version")
		}
	}
}
