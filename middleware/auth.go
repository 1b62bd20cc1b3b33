package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userContextKey contextKey = "user"

const (
	jwtClaimUserID   = "user_id"
	jwtClaimUsername = "name"
)

var ErrMissingToken = errors.New("missing bearer token")

// IssueToken подписывает HS256 токен с user_id в claims.
func IssueToken(secret []byte, userID int, username string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		jwtClaimUserID:   userID,
		jwtClaimUsername: username,
		"exp":            now.Add(ttl).Unix(),
		"iat":            now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(secret []byte, raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// tokenFromRequest берет токен только из Authorization.
func tokenFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("malformed Authorization header")
	}
	return strings.TrimSpace(token), nil
}

// wsTokenFromRequest: браузер не умеет ставить заголовки на websocket,
// поэтому для /ws допускается ?token=.
func wsTokenFromRequest(r *http.Request) (string, error) {
	token, err := tokenFromRequest(r)
	if !errors.Is(err, ErrMissingToken) {
		return token, err
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}

// Authenticate пропускает только запросы с валидным bearer токеном.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return authenticate(secret, tokenFromRequest)
}

// AuthenticateWS то же, что Authenticate, но принимает и ?token=.
// Только для websocket рукопожатия.
func AuthenticateWS(secret []byte) func(http.Handler) http.Handler {
	return authenticate(secret, wsTokenFromRequest)
}

func authenticate(secret []byte, extract func(*http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := extract(r)
			if err != nil {
				unauthorized(w)
				return
			}
			claims, err := parseToken(secret, raw)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth кладет claims в контекст, если токен есть и валиден,
// иначе запрос идет дальше анонимно.
func OptionalAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := tokenFromRequest(r)
			if err == nil {
				if claims, err := parseToken(secret, raw); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), userContextKey, claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID кладет в контекст claims с одним user_id.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userContextKey, jwt.MapClaims{jwtClaimUserID: float64(userID)})
}

func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("user claims not found in context or invalid type")
	}

	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}

	var userID int
	switch v := userIDClaim.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimUserID, v)
		}
		userID = int(v)
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid '%s' claim: %q", jwtClaimUserID, v)
		}
		userID = id
	default:
		return 0, fmt.Errorf("invalid type for '%s' claim: expected float64 or string, got %T", jwtClaimUserID, userIDClaim)
	}

	if userID <= 0 {
		return 0, fmt.Errorf("invalid user ID value in '%s' claim: %d", jwtClaimUserID, userID)
	}
	return userID, nil
}

// OptionalUserID возвращает 0 для анонимного запроса.
func OptionalUserID(ctx context.Context) int {
	id, err := GetUserIDFromContext(ctx)
	if err != nil {
		return 0
	}
	return id
}
