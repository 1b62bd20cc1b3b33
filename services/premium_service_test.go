package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryFor(t *testing.T) {
	start := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		tier models.PremiumTier
		want time.Time
	}{
		{models.TierMonthly, time.Date(2024, time.April, 15, 10, 0, 0, 0, time.UTC)},
		{models.TierYearly, time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)},
		{models.TierLifetime, time.Date(2124, time.March, 15, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			got, err := ExpiryFor(tt.tier, start)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ExpiryFor("weekly", start)
	assert.ErrorIs(t, err, ErrInvalidPremiumTier)
}

type premiumFixture struct {
	svc       PremiumService
	clock     *clockwork.FakeClock
	user      *models.User
	checkouts *mockCheckoutRepo
	metrics   *metrics.Mock
	tx        *hookTx
	locks     int
}

func newPremiumFixture(t *testing.T) *premiumFixture {
	t.Helper()
	f := &premiumFixture{
		clock:     clockwork.NewFakeClockAt(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)),
		user:      &models.User{ID: 3, Username: "dunk"},
		checkouts: &mockCheckoutRepo{},
		metrics:   metrics.NewMock(),
		tx:        &hookTx{},
	}
	users := &mockUserRepo{
		GetByIDFn: func(_ context.Context, id int) (*models.User, error) {
			u := *f.user
			return &u, nil
		},
		LockForUpdateFn: func(_ context.Context, id int) (*models.User, error) {
			f.locks++
			u := *f.user
			return &u, nil
		},
		UpdatePremiumFn: func(_ context.Context, id int, tier models.PremiumTier, expiresAt time.Time) error {
			f.user.IsPremium = true
			f.user.PremiumTier = &tier
			f.user.PremiumExpiresAt = &expiresAt
			return nil
		},
		ExpirePremiumFn: func(_ context.Context, now time.Time) (int64, error) {
			if f.user.IsPremium && !f.user.PremiumExpiresAt.After(now) {
				f.user.IsPremium = false
				return 1, nil
			}
			return 0, nil
		},
	}
	f.svc = NewPremiumService(users, f.checkouts, f.tx, nil, f.metrics, f.clock, nil)
	return f
}

func TestCheckoutThenSubscribe(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateCheckout(ctx, 3, models.TierYearly)
	require.NoError(t, err)
	assert.Equal(t, 4999, session.AmountCents)
	assert.Equal(t, "EUR", session.Currency)
	assert.Equal(t, models.CheckoutPending, session.Status)

	status, err := f.svc.Subscribe(ctx, 3, SubscribeInput{Tier: models.TierYearly, SessionID: &session.ID})
	require.NoError(t, err)
	assert.True(t, status.IsPremium)
	assert.True(t, status.ExpiresAt.Equal(f.clock.Now().AddDate(1, 0, 0)))

	// a session can be redeemed once
	_, err = f.svc.Subscribe(ctx, 3, SubscribeInput{Tier: models.TierYearly, SessionID: &session.ID})
	assert.ErrorIs(t, err, ErrCheckoutCompleted)
}

func TestSubscribeRejectsForeignSession(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateCheckout(ctx, 99, models.TierMonthly)
	require.NoError(t, err)

	_, err = f.svc.Subscribe(ctx, 3, SubscribeInput{Tier: models.TierMonthly, SessionID: &session.ID})
	assert.ErrorIs(t, err, ErrCheckoutMismatch)

	bogus := "not-a-uuid"
	_, err = f.svc.Subscribe(ctx, 3, SubscribeInput{Tier: models.TierMonthly, SessionID: &bogus})
	assert.ErrorIs(t, err, ErrCheckoutNotFound)

	_, err = f.svc.CreateCheckout(ctx, 3, "weekly")
	assert.ErrorIs(t, err, ErrInvalidPremiumTier)
}

func TestSubscribeExtendsActiveMembership(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	first, err := f.svc.Subscribe(ctx, 3, SubscribeInput{Tier: models.TierMonthly})
	require.NoError(t, err)
	f.clock.Advance(10 * 24 * time.Hour)

	second, err := f.svc.Subscribe(ctx, 3, SubscribeInput{Tier: models.TierMonthly})
	require.NoError(t, err)
	assert.True(t, second.ExpiresAt.Equal(first.ExpiresAt.AddDate(0, 1, 0)))
}

func TestConcurrentSubscriptionsStack(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	// another monthly purchase commits while this one is on its way in
	f.tx.before = func() {
		_, err := f.svc.Subscribe(ctx, 3, SubscribeInput{Tier: models.TierMonthly})
		require.NoError(t, err)
	}
	status, err := f.svc.Subscribe(ctx, 3, SubscribeInput{Tier: models.TierMonthly})
	require.NoError(t, err)

	assert.True(t, status.ExpiresAt.Equal(f.clock.Now().AddDate(0, 2, 0)), "got %s", status.ExpiresAt)
	assert.True(t, f.user.PremiumExpiresAt.Equal(*status.ExpiresAt))
	assert.Equal(t, 2, f.locks)
	assert.Equal(t, 2, f.tx.calls)
}

func TestExpiredMembershipIsClearedAndReported(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	_, err := f.svc.Subscribe(ctx, 3, SubscribeInput{Tier: models.TierMonthly})
	require.NoError(t, err)

	f.clock.Advance(31 * 24 * time.Hour)

	// flag still set, but the expiry has passed
	status, err := f.svc.Status(ctx, 3)
	require.NoError(t, err)
	assert.False(t, status.IsPremium)

	n, err := f.svc.ExpireMemberships(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, f.user.IsPremium)
	assert.Equal(t, 1, f.metrics.PremiumExpired)

	n, err = f.svc.ExpireMemberships(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
