package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		body, err := fs.ReadFile(migrations, migrationsDir+"/"+e.Name())
		require.NoError(t, err)
		text := string(body)
		assert.Contains(t, text, "-- +goose Up", e.Name())
		assert.Contains(t, text, "-- +goose Down", e.Name())
	}
}

func TestSchemaCarriesConstraintNames(t *testing.T) {
	body, err := fs.ReadFile(migrations, migrationsDir+"/00001_init.sql")
	require.NoError(t, err)

	// Repositories map unique violations by these names.
	for _, name := range []string{
		"users_username_key",
		"users_email_key",
		"teams_name_key",
		"game_participants_game_user_key",
		"tournament_teams_pkey",
		"friendships_pair_key",
		"conversations_pair_key",
		"newsletter_subscribers_email_key",
	} {
		assert.True(t, strings.Contains(string(body), name), name)
	}
}
