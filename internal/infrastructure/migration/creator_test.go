package migration

import (
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
		{"add baskets table", "add_baskets_table"},
		{"Add-Basket-Index", "add_basket_index"},
		{"add__items__table", "add_items_table"},
		{"Add Users 123", "add_users_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	t.Run("first migration starts at 000001", func(t *testing.T) {
		mf, err := CreateMigration(dir, "create schema", "initial tables")
		require.NoError(t, err)

		assert.Equal(t, "000001", mf.Version)
		assert.Equal(t, filepath.Join(dir, "000001_create_schema.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, "000001_create_schema.down.sql"), mf.DownPath)

		content, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "-- Migration: create schema")
		assert.Contains(t, string(content), "-- Description: initial tables")
	})

	t.Run("next migration increments the version", func(t *testing.T) {
		mf, err := CreateMigration(dir, "add basket index", "")
		require.NoError(t, err)
		assert.Equal(t, "000002", mf.Version)
	})

	t.Run("name without usable characters is rejected", func(t *testing.T) {
		_, err := CreateMigration(dir, "!!!", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory yields empty list", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("sorted numerically and ignores stray files", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000010_late.up.sql", "000010_late.down.sql",
			"000002_early.up.sql", "000002_early.down.sql",
			"README.md", "000003_only_down.down.sql",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000002_early", "000010_late"}, names)
	})

	t.Run("repository migrations are listed", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
		require.NoError(t, err)
		assert.Contains(t, names, "000001_create_storefront_schema")
	})
}
