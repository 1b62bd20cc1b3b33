package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConstraintViolationMapping(t *testing.T) {
	dup := &pq.Error{Code: pqUniqueViolation, Constraint: "users_email_key"}
	wrapped := fmt.Errorf("insert user: %w", dup)

	assert.True(t, isUniqueViolation(dup, "users_email_key"))
	assert.True(t, isUniqueViolation(wrapped, "users_email_key"))
	assert.False(t, isUniqueViolation(dup, "users_username_key"))
	assert.False(t, isUniqueViolation(errors.New("boom"), "users_email_key"))

	fk := &pq.Error{Code: pqForeignKeyViolation, Constraint: "games_court_id_fkey"}
	assert.True(t, isForeignKeyViolation(fk))
	assert.False(t, isForeignKeyViolation(dup))

	assert.True(t, isCheckViolation(&pq.Error{Code: pqCheckViolation}))
}

func TestMapUserError(t *testing.T) {
	assert.ErrorIs(t, mapUserError(&pq.Error{Code: pqUniqueViolation, Constraint: "users_email_key"}), ErrUserEmailConflict)
	assert.ErrorIs(t, mapUserError(&pq.Error{Code: pqUniqueViolation, Constraint: "users_username_key"}), ErrUsernameConflict)
	assert.Nil(t, mapUserError(nil))
	other := errors.New("connection reset")
	assert.ErrorIs(t, mapUserError(other), other)
}

type fakeResult struct{ n int64 }

func (f fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (f fakeResult) RowsAffected() (int64, error) { return f.n, nil }

func TestCheckAffectedRows(t *testing.T) {
	assert.ErrorIs(t, checkAffectedRows(fakeResult{0}, ErrGameNotFound), ErrGameNotFound)
	assert.NoError(t, checkAffectedRows(fakeResult{1}, ErrGameNotFound))
}
