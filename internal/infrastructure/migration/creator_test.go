package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add orders table", "add_orders_table"},
		{"Add-Orders-Table", "add_orders_table"},
		{"ADD__ORDERS__TABLE", "add_orders_table"},
		{"Index 2 on carts", "index_2_on_carts"},
		{"  spaces  ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading_", "leading"},
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

	first, err := CreateMigration(dir, "create products")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_products.up.sql"), first.UpPath)
	assert.FileExists(t, first.DownPath)

	second, err := CreateMigration(dir, "Add Banner Window")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	body, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- add_banner_window (up)")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_carts.up.sql", "000002_carts.down.sql",
		"000001_catalog.up.sql", "000001_catalog.down.sql",
		"README.md", "notes_without_version.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}

	got, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []Migration{{Version: 1, Name: "catalog"}, {Version: 2, Name: "carts"}}, got)
}

func TestListMigrations_MissingDir(t *testing.T) {
	got, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	got, err := ListMigrations("../../../migrations")
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for i, m := range got {
		assert.Equal(t, uint(i+1), m.Version, "versions must be contiguous")
		down := filepath.Join("../../../migrations", fmt.Sprintf("%06d_%s.down.sql", m.Version, m.Name))
		assert.FileExists(t, down)
	}
}
