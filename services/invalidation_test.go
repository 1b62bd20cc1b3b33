package services

import (
	"context"
	"testing"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/Dosada05/meetbasket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheGet(ctx context.Context, c *cache.Cache, load func(context.Context) ([]models.Court, error)) ([]models.Court, error) {
	return cache.GetOrLoad(ctx, c, courtsEntry(), load)
}

func TestEveryMutationDeclaresTags(t *testing.T) {
	for m := range mutationTags {
		tags := invalidationTags(m, 5)
		if m == CourtReviewed {
			assert.Empty(t, tags)
			continue
		}
		assert.NotEmpty(t, tags, "mutation %s", m)
	}
}

func TestInvalidationTags(t *testing.T) {
	assert.ElementsMatch(t, []string{"courts"}, invalidationTags(CourtCreated, 1))
	assert.ElementsMatch(t, []string{"games", "players"}, invalidationTags(GameJoined, 1))
	assert.ElementsMatch(t, []string{"users", "players"}, invalidationTags(ProfileUpdated, 1))
	assert.ElementsMatch(t, []string{"games:organizer:5"}, invalidationTags(GameCreated, 5))
	assert.ElementsMatch(t, []string{"settings:8"}, invalidationTags(SettingsUpdated, 8))
	assert.Contains(t, invalidationTags(AccountDeleted, 8), "settings:8")
}

func TestInvalidationTagsDoNotAliasDeclarations(t *testing.T) {
	_ = invalidationTags(GameDeleted, 1)
	_ = invalidationTags(GameDeleted, 2)
	assert.Equal(t, []string{tagGames, tagPlayers}, mutationTags[GameDeleted])
}

func TestApplyDropsOnlyTaggedEntries(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	inv := NewInvalidator(c, nil)

	courtLoads, settingsLoads := 0, 0
	loadCourts := func(context.Context) ([]models.Court, error) {
		courtLoads++
		return []models.Court{{ID: 1}}, nil
	}
	loadSettings := func(context.Context) (models.UserSettings, error) {
		settingsLoads++
		return models.DefaultSettings(4), nil
	}

	_, err := cacheGet(ctx, c, loadCourts)
	require.NoError(t, err)
	_, err = cache.GetOrLoad(ctx, c, settingsEntry(4), loadSettings)
	require.NoError(t, err)

	inv.Apply(ctx, SettingsUpdated, 4)

	_, err = cacheGet(ctx, c, loadCourts)
	require.NoError(t, err)
	_, err = cache.GetOrLoad(ctx, c, settingsEntry(4), loadSettings)
	require.NoError(t, err)

	assert.Equal(t, 1, courtLoads)
	assert.Equal(t, 2, settingsLoads)
}

func TestApplyOnNilInvalidatorIsNoop(t *testing.T) {
	var inv *Invalidator
	assert.NotPanics(t, func() { inv.Apply(context.Background(), CourtCreated, 1) })
}
