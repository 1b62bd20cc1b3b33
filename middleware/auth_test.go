package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/meetbasket/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func whoAmI(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := OptionalUserID(r.Context())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte{byte('0' + id)})
	})
}

func TestAuthenticate(t *testing.T) {
	token, err := IssueToken(testSecret, 7, "zoe", time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, 7, "zoe", time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	foreign, err := IssueToken([]byte("other"), 7, "zoe", time.Hour, time.Now())
	require.NoError(t, err)

	h := Authenticate(testSecret)(whoAmI(t))

	tests := []struct {
		name   string
		target string
		header string
		status int
		body   string
	}{
		{"bearer", "/", "Bearer " + token, http.StatusOK, "7"},
		{"query token", "/?token=" + token, "", http.StatusUnauthorized, ""},
		{"missing", "/", "", http.StatusUnauthorized, ""},
		{"malformed header", "/", "Token " + token, http.StatusUnauthorized, ""},
		{"expired", "/", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "/", "Bearer " + foreign, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticateWSAcceptsQueryToken(t *testing.T) {
	token, err := IssueToken(testSecret, 7, "zoe", time.Hour, time.Now())
	require.NoError(t, err)

	h := AuthenticateWS(testSecret)(whoAmI(t))

	tests := []struct {
		name   string
		target string
		header string
		status int
		body   string
	}{
		{"query token", "/ws?token=" + token, "", http.StatusOK, "7"},
		{"bearer", "/ws", "Bearer " + token, http.StatusOK, "7"},
		{"garbage query token", "/ws?token=garbage", "", http.StatusUnauthorized, ""},
		{"malformed header wins", "/ws?token=" + token, "Token " + token, http.StatusUnauthorized, ""},
		{"missing", "/ws", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestOptionalAuthIgnoresQueryToken(t *testing.T) {
	token, err := IssueToken(testSecret, 7, "zoe", time.Hour, time.Now())
	require.NoError(t, err)

	h := OptionalAuth(testSecret)(whoAmI(t))

	req := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Body.String())
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	h := OptionalAuth(testSecret)(whoAmI(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Body.String())
}

func TestGetUserIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetUserIDFromContext(req.Context())
	assert.Error(t, err)

	id, err := GetUserIDFromContext(WithUserID(req.Context(), 12))
	require.NoError(t, err)
	assert.Equal(t, 12, id)
}

func TestRequestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.NewMock()
	r := chi.NewRouter()
	r.Use(RequestMetrics(m))
	r.Get("/courts/{courtID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, path := range []string{"/courts/1", "/courts/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, 3, m.Requests)
}
