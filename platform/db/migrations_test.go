package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsAreEmbeddedWithGooseAnnotations(t *testing.T) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one embedded migration")
	}

	for _, entry := range entries {
		data, err := fs.ReadFile(migrations, "migrations/"+entry.Name())
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		body := string(data)
		if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
			t.Fatalf("%s is missing goose Up/Down annotations", entry.Name())
		}
	}
}

func TestInitMigrationEnforcesCapacityInvariant(t *testing.T) {
	data, err := fs.ReadFile(migrations, "migrations/00001_init.sql")
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	if !strings.Contains(string(data), "CHECK (assigned_today <= max_daily_claims)") {
		t.Fatal("agents table must guard assigned_today <= max_daily_claims")
	}
}
