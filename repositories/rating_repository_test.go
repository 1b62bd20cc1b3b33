package repositories

import (
	"testing"

	"github.com/Dosada05/meetbasket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingTablesCoverEveryTarget(t *testing.T) {
	for _, target := range []models.RatingTarget{
		models.RatingTargetCourt,
		models.RatingTargetTeam,
		models.RatingTargetPlayer,
	} {
		tbl, err := tableFor(target)
		require.NoError(t, err, target)
		assert.NotEmpty(t, tbl.table)
		assert.NotEmpty(t, tbl.entityTable)
	}

	_, err := tableFor("tournament")
	assert.ErrorIs(t, err, ErrUnknownRatingTarget)
}
