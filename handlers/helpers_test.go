package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/meetbasket/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrCourtNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", services.ErrGameNotFound), http.StatusNotFound},
		{services.ErrAlreadyJoined, http.StatusConflict},
		{services.ErrGameFull, http.StatusConflict},
		{services.ErrTournamentFull, http.StatusConflict},
		{services.ErrFriendRequestExists, http.StatusConflict},
		{services.ErrInvalidRating, http.StatusBadRequest},
		{fmt.Errorf("%w: bad", services.ErrValidationFailed), http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrAuthenticationFailed, http.StatusUnauthorized},
		{services.ErrOrganizerOnly, http.StatusForbidden},
		{services.ErrCaptainActionForbidden, http.StatusForbidden},
		{services.ErrUploadsDisabled, http.StatusServiceUnavailable},
		{fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	tests := []struct {
		body    string
		wantErr string
	}{
		{`{"name":"Mauerpark"}`, ""},
		{``, "body must not be empty"},
		{`{"name":`, "badly-formed JSON"},
		{`{"name":1}`, `incorrect JSON type for field "name"`},
		{`{"nope":1}`, "unknown key"},
		{`{"name":"a"}{"name":"b"}`, "single JSON value"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		err := readJSON(httptest.NewRecorder(), req, &dst)
		if tt.wantErr == "" {
			assert.NoError(t, err, tt.body)
			continue
		}
		assert.ErrorContains(t, err, tt.wantErr, tt.body)
	}
}

func TestHealth(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	rec := httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"db": ok}).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"db": ok, "redis": down}).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "refused")
}
