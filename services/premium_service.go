package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const premiumCurrency = "EUR"

// premiumPrices in cents.
var premiumPrices = map[models.PremiumTier]int{
	models.TierMonthly:  499,
	models.TierYearly:   4999,
	models.TierLifetime: 14999,
}

// ExpiryFor returns when a subscription of tier started at start runs out.
// Lifetime is modelled as a hundred years.
func ExpiryFor(tier models.PremiumTier, start time.Time) (time.Time, error) {
	switch tier {
	case models.TierMonthly:
		return start.AddDate(0, 1, 0), nil
	case models.TierYearly:
		return start.AddDate(1, 0, 0), nil
	case models.TierLifetime:
		return start.AddDate(100, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: '%s'", ErrInvalidPremiumTier, tier)
}

type PremiumService interface {
	CreateCheckout(ctx context.Context, userID int, tier models.PremiumTier) (*models.CheckoutSession, error)
	Subscribe(ctx context.Context, userID int, input SubscribeInput) (*models.PremiumStatus, error)
	Status(ctx context.Context, userID int) (*models.PremiumStatus, error)
	ExpireMemberships(ctx context.Context) (int64, error)
}

type SubscribeInput struct {
	Tier      models.PremiumTier `json:"tier"`
	SessionID *string            `json:"session_id"`
}

type premiumService struct {
	userRepo     repositories.UserRepository
	checkoutRepo repositories.CheckoutRepository
	tx           repositories.Transactor
	invalidator  *Invalidator
	metrics      metrics.Metrics
	clock        clockwork.Clock
	logger       *slog.Logger
}

func NewPremiumService(
	userRepo repositories.UserRepository,
	checkoutRepo repositories.CheckoutRepository,
	tx repositories.Transactor,
	invalidator *Invalidator,
	m metrics.Metrics,
	clock clockwork.Clock,
	logger *slog.Logger,
) PremiumService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &premiumService{
		userRepo:     userRepo,
		checkoutRepo: checkoutRepo,
		tx:           tx,
		invalidator:  invalidator,
		metrics:      m,
		clock:        clock,
		logger:       logger,
	}
}

func (s *premiumService) CreateCheckout(ctx context.Context, userID int, tier models.PremiumTier) (*models.CheckoutSession, error) {
	price, ok := premiumPrices[tier]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPremiumTier, tier)
	}
	session := &models.CheckoutSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		Tier:        tier,
		AmountCents: price,
		Currency:    premiumCurrency,
		Status:      models.CheckoutPending,
	}
	if err := s.checkoutRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}
	return session, nil
}

// Subscribe activates premium. A still-running subscription is extended from
// its current expiry rather than from now; the expiry is read under the user
// row lock so concurrent subscriptions stack.
func (s *premiumService) Subscribe(ctx context.Context, userID int, input SubscribeInput) (*models.PremiumStatus, error) {
	if !input.Tier.Valid() {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPremiumTier, input.Tier)
	}
	if input.SessionID != nil {
		if _, err := uuid.Parse(*input.SessionID); err != nil {
			return nil, ErrCheckoutNotFound
		}
	}

	var expiresAt time.Time
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		user, err := s.userRepo.LockForUpdate(ctx, exec, userID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		start := now
		if user.IsPremium && user.PremiumExpiresAt != nil && user.PremiumExpiresAt.After(now) {
			start = *user.PremiumExpiresAt
		}
		if expiresAt, err = ExpiryFor(input.Tier, start); err != nil {
			return err
		}

		if input.SessionID != nil {
			session, err := s.checkoutRepo.GetForUpdate(ctx, exec, *input.SessionID)
			if err != nil {
				return err
			}
			if session.UserID != userID || session.Tier != input.Tier {
				return ErrCheckoutMismatch
			}
			if session.Status == models.CheckoutCompleted {
				return ErrCheckoutCompleted
			}
			if err := s.checkoutRepo.MarkCompleted(ctx, exec, session.ID); err != nil {
				return err
			}
		}
		return s.userRepo.UpdatePremium(ctx, exec, userID, input.Tier, expiresAt)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrCheckoutNotFound):
			return nil, ErrCheckoutNotFound
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		case isAny(err, ErrCheckoutMismatch, ErrCheckoutCompleted):
			return nil, err
		}
		return nil, fmt.Errorf("failed to activate premium: %w", err)
	}

	s.invalidator.Apply(ctx, PremiumChanged, userID)
	tier := input.Tier
	return &models.PremiumStatus{IsPremium: true, Tier: &tier, ExpiresAt: &expiresAt}, nil
}

func (s *premiumService) Status(ctx context.Context, userID int) (*models.PremiumStatus, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return premiumStatusOf(user, s.clock.Now()), nil
}

// premiumStatusOf treats a passed expiry as inactive even before the expiry
// job has cleared the flag.
func premiumStatusOf(user *models.User, now time.Time) *models.PremiumStatus {
	status := &models.PremiumStatus{
		IsPremium: user.IsPremium,
		Tier:      user.PremiumTier,
		ExpiresAt: user.PremiumExpiresAt,
	}
	if user.PremiumExpiresAt != nil && !now.Before(*user.PremiumExpiresAt) {
		status.IsPremium = false
	}
	return status
}

// ExpireMemberships clears premium flags whose expiry has passed.
func (s *premiumService) ExpireMemberships(ctx context.Context) (int64, error) {
	expired, err := s.userRepo.ExpirePremium(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire premium memberships: %w", err)
	}
	if expired > 0 {
		if s.metrics != nil {
			s.metrics.AddPremiumExpired(int(expired))
		}
		s.invalidator.Apply(ctx, PremiumChanged, 0)
		s.logger.InfoContext(ctx, "premium memberships expired", slog.Int64("count", expired))
	}
	return expired, nil
}
