package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/Dosada05/meetbasket/docs"
	"github.com/Dosada05/meetbasket/handlers"
	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Handlers with nil services: the tests only hit paths that fail before a
// service is called.
func newTestRouter(t *testing.T, staticDir string) (http.Handler, *metrics.Mock) {
	t.Helper()
	m := metrics.NewMock()
	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Auth:       handlers.NewAuthHandler(nil, "secret", 0),
		Court:      handlers.NewCourtHandler(nil),
		Rating:     handlers.NewRatingHandler(nil),
		Game:       handlers.NewGameHandler(nil),
		Team:       handlers.NewTeamHandler(nil),
		Tournament: handlers.NewTournamentHandler(nil),
		User:       handlers.NewUserHandler(nil),
		Friend:     handlers.NewFriendHandler(nil),
		Message:    handlers.NewMessageHandler(nil),
		Settings:   handlers.NewSettingsHandler(nil),
		Premium:    handlers.NewPremiumHandler(nil),
		Contact:    handlers.NewContactHandler(nil),
		WebSocket:  handlers.NewWebSocketHandler(nil, []string{"*"}, nil),
		Health:     handlers.NewHealthHandler(nil),
	}, Options{
		JWTSecret:      []byte("secret"),
		AllowedOrigins: []string{"*"},
		StaticDir:      staticDir,
		Metrics:        m,
		MetricsHandler: metrics.NewMetricsHandler(),
	})
	return router, m
}

func TestRoutes(t *testing.T) {
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "app.js"), []byte("console.log(1)"), 0o644))
	router, m := newTestRouter(t, static)

	tests := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/swagger/doc.json", http.StatusOK},
		{http.MethodGet, "/api/courts/nearby", http.StatusBadRequest},
		{http.MethodGet, "/api/courts/abc", http.StatusBadRequest},
		{http.MethodPost, "/api/courts", http.StatusUnauthorized},
		{http.MethodGet, "/api/tournaments/abc/bracket", http.StatusBadRequest},
		{http.MethodPost, "/api/tournaments/1/join", http.StatusUnauthorized},
		{http.MethodGet, "/api/friends", http.StatusUnauthorized},
		{http.MethodGet, "/api/messages/unread-count", http.StatusUnauthorized},
		{http.MethodPut, "/api/settings", http.StatusUnauthorized},
		{http.MethodGet, "/api/premium/status", http.StatusUnauthorized},
		{http.MethodGet, "/api/ws", http.StatusUnauthorized},
		{http.MethodGet, "/app.js", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, len(tests), m.Requests)
}

func TestQueryTokenRejectedOutsideWebSocket(t *testing.T) {
	router, _ := newTestRouter(t, t.TempDir())
	token, err := middleware.IssueToken([]byte("secret"), 7, "zoe", time.Hour, time.Now())
	require.NoError(t, err)

	for _, path := range []string{"/api/friends", "/api/settings", "/api/premium/status"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path+"?token="+token, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
