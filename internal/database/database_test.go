package database

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationsFSFallsBackToEmbedded(t *testing.T) {
	fsys := MigrationsFS(filepath.Join(t.TempDir(), "missing"))
	data, err := fs.ReadFile(fsys, "00001_reports_cache.sql")
	if err != nil {
		t.Fatalf("expected embedded migration: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("embedded migration is empty")
	}
}

func TestMigrationsFSPrefersDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "00002_extra.sql"), []byte("-- +goose Up\n"), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}
	fsys := MigrationsFS(dir)
	if _, err := fs.Stat(fsys, "00002_extra.sql"); err != nil {
		t.Fatalf("expected on-disk migration: %v", err)
	}
	if _, err := fs.Stat(fsys, "00001_reports_cache.sql"); err == nil {
		t.Fatalf("embedded migrations should not be mixed in")
	}
}
