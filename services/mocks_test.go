package services

import (
	"context"
	"sync"
	"time"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/Dosada05/meetbasket/stats"
	"github.com/jonboulle/clockwork"
)

// Mocks embed the repository interface: methods a test does not override
// panic through the nil embedded value, which flags unexpected calls.

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

// hookTx runs before once, ahead of the next transaction, to interleave a
// competing request between a caller's reads and its transaction.
type hookTx struct {
	fakeTx
	before func()
}

func (h *hookTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if b := h.before; b != nil {
		h.before = nil
		b()
	}
	return h.fakeTx.WithinTx(ctx, fn)
}

func newTestCache() (*cache.Cache, *metrics.Mock) {
	m := metrics.NewMock()
	return cache.New(cache.NewMemoryStore(clockwork.NewFakeClock()), m, nil), m
}

type mockGameRepo struct {
	repositories.GameRepository

	ListFn              func(ctx context.Context, filter repositories.GameFilter) ([]models.Game, error)
	GetByIDFn           func(ctx context.Context, id int) (*models.Game, error)
	LockForUpdateFn     func(ctx context.Context, id int) (*models.Game, error)
	CountParticipantsFn func(ctx context.Context, gameID int) (int, error)
	AddParticipantFn    func(ctx context.Context, p *models.Participant) error
	SetParticipantFn    func(ctx context.Context, gameID, userID int, teamID *int) error
	UpsertStatFn        func(ctx context.Context, s *models.PlayerStat) error
	SaveResultFn        func(ctx context.Context, gameID int, result models.GameResult, score models.Score) error
	ListHistoryFn       func(ctx context.Context, userID int, until time.Time) ([]stats.Participation, error)
	CountOrganizedByFn  func(ctx context.Context, userID int) (int, error)
}

func (m *mockGameRepo) List(ctx context.Context, filter repositories.GameFilter) ([]models.Game, error) {
	return m.ListFn(ctx, filter)
}

func (m *mockGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockGameRepo) LockForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int) (*models.Game, error) {
	return m.LockForUpdateFn(ctx, id)
}

func (m *mockGameRepo) CountParticipants(ctx context.Context, _ repositories.SQLExecutor, gameID int) (int, error) {
	return m.CountParticipantsFn(ctx, gameID)
}

func (m *mockGameRepo) AddParticipant(ctx context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	return m.AddParticipantFn(ctx, p)
}

func (m *mockGameRepo) SetParticipantTeam(ctx context.Context, _ repositories.SQLExecutor, gameID, userID int, teamID *int) error {
	return m.SetParticipantFn(ctx, gameID, userID, teamID)
}

func (m *mockGameRepo) UpsertStat(ctx context.Context, _ repositories.SQLExecutor, s *models.PlayerStat) error {
	return m.UpsertStatFn(ctx, s)
}

func (m *mockGameRepo) SaveResult(ctx context.Context, _ repositories.SQLExecutor, gameID int, result models.GameResult, score models.Score) error {
	return m.SaveResultFn(ctx, gameID, result, score)
}

func (m *mockGameRepo) ListHistory(ctx context.Context, userID int, until time.Time) ([]stats.Participation, error) {
	return m.ListHistoryFn(ctx, userID, until)
}

func (m *mockGameRepo) CountOrganizedBy(ctx context.Context, userID int) (int, error) {
	return m.CountOrganizedByFn(ctx, userID)
}

type mockUserRepo struct {
	repositories.UserRepository

	GetByIDFn       func(ctx context.Context, id int) (*models.User, error)
	UpdatePremiumFn func(ctx context.Context, id int, tier models.PremiumTier, expiresAt time.Time) error
	ExpirePremiumFn func(ctx context.Context, now time.Time) (int64, error)
	ListPlayersFn   func(ctx context.Context) ([]models.PlayerListItem, error)
	DeleteFn        func(ctx context.Context, id int) error
	LockForUpdateFn func(ctx context.Context, id int) (*models.User, error)
}

func (m *mockUserRepo) LockForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int) (*models.User, error) {
	return m.LockForUpdateFn(ctx, id)
}

func (m *mockUserRepo) Delete(ctx context.Context, _ repositories.SQLExecutor, id int) error {
	return m.DeleteFn(ctx, id)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockUserRepo) UpdatePremium(ctx context.Context, _ repositories.SQLExecutor, id int, tier models.PremiumTier, expiresAt time.Time) error {
	return m.UpdatePremiumFn(ctx, id, tier, expiresAt)
}

func (m *mockUserRepo) ExpirePremium(ctx context.Context, now time.Time) (int64, error) {
	return m.ExpirePremiumFn(ctx, now)
}

func (m *mockUserRepo) ListPlayers(ctx context.Context) ([]models.PlayerListItem, error) {
	return m.ListPlayersFn(ctx)
}

type mockTournamentRepo struct {
	repositories.TournamentRepository

	CountByMemberFn func(ctx context.Context, userID int) (int, error)
}

func (m *mockTournamentRepo) CountByMember(ctx context.Context, userID int) (int, error) {
	return m.CountByMemberFn(ctx, userID)
}

type mockCheckoutRepo struct {
	repositories.CheckoutRepository

	sessions map[string]*models.CheckoutSession
}

func (m *mockCheckoutRepo) Create(_ context.Context, s *models.CheckoutSession) error {
	if m.sessions == nil {
		m.sessions = make(map[string]*models.CheckoutSession)
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockCheckoutRepo) GetForUpdate(_ context.Context, _ repositories.SQLExecutor, id string) (*models.CheckoutSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, repositories.ErrCheckoutNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockCheckoutRepo) MarkCompleted(_ context.Context, _ repositories.SQLExecutor, id string) error {
	s, ok := m.sessions[id]
	if !ok {
		return repositories.ErrCheckoutNotFound
	}
	s.Status = models.CheckoutCompleted
	return nil
}

type ratingKey struct {
	target models.RatingTarget
	id     int
}

// memoryRatingRepo keeps one score per (target, rater), like the unique
// constraint in the database.
type memoryRatingRepo struct {
	mu      sync.Mutex
	scores  map[ratingKey]map[int]int
	stored  map[ratingKey]models.RatingAggregate
	missing map[ratingKey]bool
	locks   int
}

func newMemoryRatingRepo() *memoryRatingRepo {
	return &memoryRatingRepo{
		scores:  make(map[ratingKey]map[int]int),
		stored:  make(map[ratingKey]models.RatingAggregate),
		missing: make(map[ratingKey]bool),
	}
}

func (r *memoryRatingRepo) LockTarget(_ context.Context, _ repositories.SQLExecutor, target models.RatingTarget, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.missing[ratingKey{target, id}] {
		return repositories.ErrRatingTargetNotFound
	}
	r.locks++
	return nil
}

func (r *memoryRatingRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, rating *models.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := ratingKey{rating.Target, rating.TargetID}
	if r.scores[k] == nil {
		r.scores[k] = make(map[int]int)
	}
	r.scores[k][rating.RaterID] = rating.Score
	return nil
}

func (r *memoryRatingRepo) Aggregate(_ context.Context, _ repositories.SQLExecutor, target models.RatingTarget, id int) (models.RatingAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.scores[ratingKey{target, id}]
	if len(rows) == 0 {
		return models.RatingAggregate{}, nil
	}
	sum := 0
	for _, s := range rows {
		sum += s
	}
	return models.RatingAggregate{Average: float64(sum) / float64(len(rows)), Count: len(rows)}, nil
}

func (r *memoryRatingRepo) StoreAggregate(_ context.Context, _ repositories.SQLExecutor, target models.RatingTarget, id int, agg models.RatingAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored[ratingKey{target, id}] = agg
	return nil
}

func (r *memoryRatingRepo) DeleteByRater(_ context.Context, _ repositories.SQLExecutor, target models.RatingTarget, raterID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0)
	for k, rows := range r.scores {
		if k.target != target {
			continue
		}
		if _, ok := rows[raterID]; ok {
			delete(rows, raterID)
			ids = append(ids, k.id)
		}
	}
	return ids, nil
}

func (r *memoryRatingRepo) RecomputeAll(context.Context, models.RatingTarget) (int64, error) {
	return 0, nil
}

type recordedEvent struct {
	userID    int
	eventType string
	payload   interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) NotifyUser(userID int, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{userID, eventType, payload})
}

func intPtr(v int) *int { return &v }

// memoryGameRepo keeps games and their participants in join order, like the
// joined_at ordering of the postgres repository.
type memoryGameRepo struct {
	repositories.GameRepository

	mu        sync.Mutex
	clock     clockwork.Clock
	usernames map[int]string
	games     []*models.Game
}

func newMemoryGameRepo(clock clockwork.Clock, usernames map[int]string) *memoryGameRepo {
	return &memoryGameRepo{clock: clock, usernames: usernames}
}

func (r *memoryGameRepo) Create(_ context.Context, g *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.ID = len(r.games) + 1
	g.CreatedAt = r.clock.Now()
	stored := *g
	r.games = append(r.games, &stored)
	return nil
}

func (r *memoryGameRepo) find(id int) (*models.Game, error) {
	for _, g := range r.games {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, repositories.ErrGameNotFound
}

func (r *memoryGameRepo) withPeople(g *models.Game) models.Game {
	out := *g
	out.Participants = append([]models.Participant(nil), g.Participants...)
	out.Organizer = &models.User{ID: g.OrganizerID, Username: r.usernames[g.OrganizerID]}
	return out
}

func (r *memoryGameRepo) List(_ context.Context, f repositories.GameFilter) ([]models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Game, 0)
	for _, g := range r.games {
		if f.From != nil && g.ScheduledAt.Before(*f.From) {
			continue
		}
		if f.Before != nil && !g.ScheduledAt.Before(*f.Before) {
			continue
		}
		if f.OrganizerID != nil && g.OrganizerID != *f.OrganizerID {
			continue
		}
		out = append(out, r.withPeople(g))
	}
	return out, nil
}

func (r *memoryGameRepo) LockForUpdate(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.find(id)
	if err != nil {
		return nil, err
	}
	out := r.withPeople(g)
	return &out, nil
}

func (r *memoryGameRepo) CountParticipants(_ context.Context, _ repositories.SQLExecutor, gameID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.find(gameID)
	if err != nil {
		return 0, err
	}
	return len(g.Participants), nil
}

func (r *memoryGameRepo) AddParticipant(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.find(p.GameID)
	if err != nil {
		return err
	}
	for _, existing := range g.Participants {
		if existing.UserID == p.UserID {
			return repositories.ErrAlreadyJoined
		}
	}
	p.Username = r.usernames[p.UserID]
	p.JoinedAt = r.clock.Now()
	g.Participants = append(g.Participants, *p)
	return nil
}
