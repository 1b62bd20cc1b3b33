package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/meetbasket/middleware"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = "handler-secret"

type stubGameService struct {
	services.GameService

	listQuery services.GameListQuery
	joinErr   error
	joinTeam  *int
}

func (s *stubGameService) ListGames(_ context.Context, q services.GameListQuery) ([]models.GameListItem, error) {
	s.listQuery = q
	if q.Tab == services.GameTabJoined && q.CurrentUserID == 0 {
		return nil, services.ErrAuthenticationFailed
	}
	return []models.GameListItem{}, nil
}

func (s *stubGameService) JoinGame(_ context.Context, gameID, userID int, teamID *int) (*models.Participant, error) {
	if s.joinErr != nil {
		return nil, s.joinErr
	}
	s.joinTeam = teamID
	return &models.Participant{GameID: gameID, UserID: userID, TeamID: teamID}, nil
}

type stubAuthService struct {
	services.AuthService
}

func (stubAuthService) Login(_ context.Context, in services.LoginInput) (*models.User, error) {
	if in.Password != "correct-horse" {
		return nil, services.ErrInvalidCredentials
	}
	return &models.User{ID: 42, Username: "dunk", Email: in.Email}, nil
}

type stubRatingService struct {
	services.RatingService

	target models.RatingTarget
	id     int
	rater  int
}

func (s *stubRatingService) Rate(_ context.Context, target models.RatingTarget, targetID, raterID, score int) (models.RatingAggregate, error) {
	if score < 1 || score > 5 {
		return models.RatingAggregate{}, services.ErrInvalidRating
	}
	s.target, s.id, s.rater = target, targetID, raterID
	return models.RatingAggregate{Average: 4.5, Count: 2}, nil
}

func bearer(t *testing.T, userID int) string {
	t.Helper()
	token, err := middleware.IssueToken([]byte(testSecret), userID, "u", time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, h http.Handler, method, target, body, auth string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func gameRouter(gs *stubGameService) http.Handler {
	h := NewGameHandler(gs)
	r := chi.NewRouter()
	r.With(middleware.OptionalAuth([]byte(testSecret))).Get("/games", h.ListGames)
	r.With(middleware.Authenticate([]byte(testSecret))).Post("/games/{gameID}/join", h.JoinGame)
	return r
}

func TestListGamesPassesOptionalUser(t *testing.T) {
	gs := &stubGameService{}
	r := gameRouter(gs)

	rec := do(t, r, http.MethodGet, "/games?tab=joined&court_id=3", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, r, http.MethodGet, "/games?tab=joined&court_id=3", "", bearer(t, 9))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 9, gs.listQuery.CurrentUserID)
	require.NotNil(t, gs.listQuery.CourtID)
	assert.Equal(t, 3, *gs.listQuery.CourtID)

	rec = do(t, r, http.MethodGet, "/games?court_id=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinGame(t *testing.T) {
	gs := &stubGameService{}
	r := gameRouter(gs)

	rec := do(t, r, http.MethodPost, "/games/5/join", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, r, http.MethodPost, "/games/5/join", "", bearer(t, 2))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, gs.joinTeam)

	rec = do(t, r, http.MethodPost, "/games/5/join", `{"team_id":11}`, bearer(t, 2))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, gs.joinTeam)
	assert.Equal(t, 11, *gs.joinTeam)

	gs.joinErr = services.ErrGameFull
	rec = do(t, r, http.MethodPost, "/games/5/join", "", bearer(t, 2))
	assert.Equal(t, http.StatusConflict, rec.Code)

	gs.joinErr = services.ErrAlreadyJoined
	rec = do(t, r, http.MethodPost, "/games/5/join", "", bearer(t, 2))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodPost, "/games/zero/join", "", bearer(t, 2))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinGameReadsChunkedBody(t *testing.T) {
	gs := &stubGameService{}
	r := gameRouter(gs)

	// io.MultiReader скрывает длину: ContentLength == -1, как у chunked
	req := httptest.NewRequest(http.MethodPost, "/games/5/join", io.MultiReader(strings.NewReader(`{"team_id":11}`)))
	require.EqualValues(t, -1, req.ContentLength)
	req.Header.Set("Authorization", bearer(t, 2))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, gs.joinTeam)
	assert.Equal(t, 11, *gs.joinTeam)

	// пустое chunked тело значит "без команды"
	gs.joinTeam = nil
	req = httptest.NewRequest(http.MethodPost, "/games/5/join", io.MultiReader(strings.NewReader("")))
	req.Header.Set("Authorization", bearer(t, 2))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, gs.joinTeam)

	rec = do(t, r, http.MethodPost, "/games/5/join", `{"team_id":`, bearer(t, 2))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginIssuesUsableToken(t *testing.T) {
	h := NewAuthHandler(stubAuthService{}, testSecret, time.Hour)

	rec := do(t, http.HandlerFunc(h.Login), http.MethodPost, "/auth/login",
		`{"email":"dunk@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, http.HandlerFunc(h.Login), http.MethodPost, "/auth/login",
		`{"email":"dunk@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 42, body.User.ID)

	// the token authenticates as the logged-in user
	var seen int
	protected := middleware.Authenticate([]byte(testSecret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.GetUserIDFromContext(r.Context())
	}))
	do(t, protected, http.MethodGet, "/", "", "Bearer "+body.Token)
	assert.Equal(t, 42, seen)
}

func TestRatePlayer(t *testing.T) {
	rs := &stubRatingService{}
	h := NewRatingHandler(rs)
	r := chi.NewRouter()
	r.With(middleware.Authenticate([]byte(testSecret))).Post("/players/{userID}/rate", h.RatePlayer)

	rec := do(t, r, http.MethodPost, "/players/8/rate", `{"rating":6}`, bearer(t, 3))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/players/8/rate", `{"rating":5}`, bearer(t, 3))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RatingTargetPlayer, rs.target)
	assert.Equal(t, 8, rs.id)
	assert.Equal(t, 3, rs.rater)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4.5, body["rating"])
	assert.Equal(t, float64(2), body["rating_count"])
}
