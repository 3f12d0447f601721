package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add invoices table", "add_invoices_table"},
		{"Add-Email-Columns", "add_email_columns"},
		{"add__sealed__token", "add_sealed_token"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "init", "", created)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_init.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_init.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "Add email columns", "Track deliveries", created)
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.Equal(t, "-- add_email_columns\n-- Created: 2025-11-01T08:00:00Z\n-- Track deliveries\n\n", string(up))

	down, err := os.ReadFile(second.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "", created)
	assert.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "init", "", created)
	require.NoError(t, err)
	assert.FileExists(t, mf.UpPath)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000010_later.up.sql", "000010_later.down.sql",
		"000002_second.up.sql",
		"000001_init.up.sql", "000001_init.down.sql",
		"README.md", "notes.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

	got, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "000001_init", got[0].String())
	assert.Equal(t, "000002_second", got[1].String())
	assert.Equal(t, Entry{Version: 10, Name: "later"}, got[2])
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	got, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListMigrations_RepositorySchema(t *testing.T) {
	got, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "000001_init", got[0].String())
}
