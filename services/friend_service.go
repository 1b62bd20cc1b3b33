package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/realtime"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/Dosada05/meetbasket/storage"
)

type FriendService interface {
	ListFriends(ctx context.Context, userID int) ([]models.User, error)
	ListRequests(ctx context.Context, userID int) (*models.FriendRequests, error)
	SendRequest(ctx context.Context, requesterID, addresseeID int) (*models.Friendship, error)
	AcceptRequest(ctx context.Context, requestID, currentUserID int) (*models.Friendship, error)
	DeclineRequest(ctx context.Context, requestID, currentUserID int) error
	CancelRequest(ctx context.Context, requestID, currentUserID int) error
	RemoveFriend(ctx context.Context, userID, friendID int) error
}

type friendService struct {
	friendRepo repositories.FriendshipRepository
	notifier   Notifier
	uploader   storage.FileUploader
}

func NewFriendService(friendRepo repositories.FriendshipRepository, notifier Notifier, uploader storage.FileUploader) FriendService {
	return &friendService{
		friendRepo: friendRepo,
		notifier:   notifierOrNoop(notifier),
		uploader:   uploader,
	}
}

func (s *friendService) ListFriends(ctx context.Context, userID int) ([]models.User, error) {
	friends, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	for i := range friends {
		populatePublicUser(&friends[i], s.uploader)
	}
	return friends, nil
}

func (s *friendService) ListRequests(ctx context.Context, userID int) (*models.FriendRequests, error) {
	requests, err := s.friendRepo.ListRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	for _, list := range [][]models.Friendship{requests.Incoming, requests.Outgoing} {
		for i := range list {
			populatePublicUser(list[i].Requester, s.uploader)
			populatePublicUser(list[i].Addressee, s.uploader)
		}
	}
	return requests, nil
}

func (s *friendService) SendRequest(ctx context.Context, requesterID, addresseeID int) (*models.Friendship, error) {
	if addresseeID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidationFailed)
	}
	if requesterID == addresseeID {
		return nil, ErrSelfFriendRequest
	}

	f := &models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.FriendshipPending,
	}
	if err := s.friendRepo.Create(ctx, f); err != nil {
		switch {
		case errors.Is(err, repositories.ErrFriendshipConflict):
			return nil, ErrFriendRequestExists
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to send friend request: %w", err)
	}

	s.notifier.NotifyUser(addresseeID, realtime.EventFriendRequest, f)
	return f, nil
}

// pendingRequest loads a request that is still pending; accepted friendships
// are not requests anymore.
func (s *friendService) pendingRequest(ctx context.Context, requestID int) (*models.Friendship, error) {
	f, err := s.friendRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, fmt.Errorf("failed to get friend request %d: %w", requestID, err)
	}
	if f.Status != models.FriendshipPending {
		return nil, ErrFriendRequestNotFound
	}
	return f, nil
}

func (s *friendService) AcceptRequest(ctx context.Context, requestID, currentUserID int) (*models.Friendship, error) {
	f, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if f.AddresseeID != currentUserID {
		return nil, ErrForbiddenOperation
	}
	if err := s.friendRepo.Accept(ctx, requestID); err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, fmt.Errorf("failed to accept friend request: %w", err)
	}

	f.Status = models.FriendshipAccepted
	s.notifier.NotifyUser(f.RequesterID, realtime.EventFriendAccepted, f)
	return f, nil
}

func (s *friendService) DeclineRequest(ctx context.Context, requestID, currentUserID int) error {
	f, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if f.AddresseeID != currentUserID {
		return ErrForbiddenOperation
	}
	return s.deleteRequest(ctx, requestID)
}

func (s *friendService) CancelRequest(ctx context.Context, requestID, currentUserID int) error {
	f, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if f.RequesterID != currentUserID {
		return ErrForbiddenOperation
	}
	return s.deleteRequest(ctx, requestID)
}

func (s *friendService) deleteRequest(ctx context.Context, requestID int) error {
	if err := s.friendRepo.Delete(ctx, requestID); err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return ErrFriendRequestNotFound
		}
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	return nil
}

func (s *friendService) RemoveFriend(ctx context.Context, userID, friendID int) error {
	f, err := s.friendRepo.GetBetween(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return ErrFriendshipNotFound
		}
		return fmt.Errorf("failed to get friendship: %w", err)
	}
	if f.Status != models.FriendshipAccepted {
		return ErrFriendshipNotFound
	}
	if err := s.friendRepo.Delete(ctx, f.ID); err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return ErrFriendshipNotFound
		}
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	return nil
}
