package services

import (
	"context"
	"testing"

	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/realtime"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFriendRepo struct {
	repositories.FriendshipRepository

	rows   map[int]*models.Friendship
	nextID int
}

func newMemoryFriendRepo() *memoryFriendRepo {
	return &memoryFriendRepo{rows: make(map[int]*models.Friendship)}
}

func (r *memoryFriendRepo) Create(_ context.Context, f *models.Friendship) error {
	for _, row := range r.rows {
		if (row.RequesterID == f.RequesterID && row.AddresseeID == f.AddresseeID) ||
			(row.RequesterID == f.AddresseeID && row.AddresseeID == f.RequesterID) {
			return repositories.ErrFriendshipConflict
		}
	}
	r.nextID++
	f.ID = r.nextID
	cp := *f
	r.rows[f.ID] = &cp
	return nil
}

func (r *memoryFriendRepo) GetByID(_ context.Context, id int) (*models.Friendship, error) {
	f, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrFriendshipNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *memoryFriendRepo) Accept(_ context.Context, id int) error {
	f, ok := r.rows[id]
	if !ok {
		return repositories.ErrFriendshipNotFound
	}
	f.Status = models.FriendshipAccepted
	return nil
}

func (r *memoryFriendRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrFriendshipNotFound
	}
	delete(r.rows, id)
	return nil
}

func TestFriendRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryFriendRepo()
	notifier := &recordingNotifier{}
	svc := NewFriendService(repo, notifier, nil)

	req, err := svc.SendRequest(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, 2, notifier.events[0].userID)
	assert.Equal(t, realtime.EventFriendRequest, notifier.events[0].eventType)

	_, err = svc.SendRequest(ctx, 2, 1)
	assert.ErrorIs(t, err, ErrFriendRequestExists)

	// only the addressee can accept
	_, err = svc.AcceptRequest(ctx, req.ID, 1)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	accepted, err := svc.AcceptRequest(ctx, req.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipAccepted, accepted.Status)
	require.Len(t, notifier.events, 2)
	assert.Equal(t, 1, notifier.events[1].userID)
	assert.Equal(t, realtime.EventFriendAccepted, notifier.events[1].eventType)

	// an accepted friendship is no longer a request
	err = svc.CancelRequest(ctx, req.ID, 1)
	assert.ErrorIs(t, err, ErrFriendRequestNotFound)
}

func TestFriendRequestValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewFriendService(newMemoryFriendRepo(), nil, nil)

	_, err := svc.SendRequest(ctx, 3, 3)
	assert.ErrorIs(t, err, ErrSelfFriendRequest)

	_, err = svc.SendRequest(ctx, 3, 0)
	assert.ErrorIs(t, err, ErrValidationFailed)

	req, err := svc.SendRequest(ctx, 3, 4)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CancelRequest(ctx, req.ID, 4), ErrForbiddenOperation)
	assert.ErrorIs(t, svc.DeclineRequest(ctx, req.ID, 3), ErrForbiddenOperation)
	require.NoError(t, svc.DeclineRequest(ctx, req.ID, 4))
	assert.ErrorIs(t, svc.DeclineRequest(ctx, req.ID, 4), ErrFriendRequestNotFound)
}
